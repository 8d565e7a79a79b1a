//go:build linux

package index

import (
	"os"
	"syscall"
)

// fillStatTimes copies the stat metadata the platform exposes into the
// entry. Nanosecond fields and inode numbers are truncated to 32 bits,
// matching the on-disk encoding.
func fillStatTimes(e *Entry, info os.FileInfo) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		mt := info.ModTime()
		e.MtimeSec = uint32(mt.Unix())
		e.MtimeNsec = uint32(mt.Nanosecond())
		e.CtimeSec = e.MtimeSec
		e.CtimeNsec = e.MtimeNsec
		return
	}
	e.CtimeSec = uint32(st.Ctim.Sec)
	e.CtimeNsec = uint32(st.Ctim.Nsec)
	e.MtimeSec = uint32(st.Mtim.Sec)
	e.MtimeNsec = uint32(st.Mtim.Nsec)
	e.Dev = uint32(st.Dev)
	e.Ino = uint32(st.Ino)
	e.UID = st.Uid
	e.GID = st.Gid
}
