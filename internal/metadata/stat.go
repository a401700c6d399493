package metadata

import "encoding/binary"

const (
	modeRegular   uint32 = 0o100000 | 0o777
	modeDirectory uint32 = 0o040000 | 0o777

	nlinkFile uint32 = 1
	nlinkDir  uint32 = 2
)

// Stat is the synthesized attribute blob returned by GetFileAttr. There is
// no on-disk per-file size/mtime tracked anywhere — mode and link count
// are derived purely from the attr tag. Size is always 0: the engine does
// not read the host file's size.
type Stat struct {
	Mode  uint32
	Nlink uint32
	Size  uint64
}

func fileStat() *Stat { return &Stat{Mode: modeRegular, Nlink: nlinkFile} }
func dirStat() *Stat  { return &Stat{Mode: modeDirectory, Nlink: nlinkDir} }

// EncodeStat serializes a Stat into the response "meta" section.
func EncodeStat(s *Stat) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], s.Mode)
	binary.LittleEndian.PutUint32(buf[4:8], s.Nlink)
	binary.LittleEndian.PutUint64(buf[8:16], s.Size)
	return buf
}

// DecodeStat parses the response "meta" section produced by EncodeStat.
func DecodeStat(b []byte) (*Stat, error) {
	if len(b) < 16 {
		return nil, NewError(EIO)
	}
	return &Stat{
		Mode:  binary.LittleEndian.Uint32(b[0:4]),
		Nlink: binary.LittleEndian.Uint32(b[4:8]),
		Size:  binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}
