//go:build !linux

package index

import "os"

func fillStatTimes(e *Entry, info os.FileInfo) {
	mt := info.ModTime()
	e.MtimeSec = uint32(mt.Unix())
	e.MtimeNsec = uint32(mt.Nanosecond())
	e.CtimeSec = e.MtimeSec
	e.CtimeNsec = e.MtimeNsec
}
