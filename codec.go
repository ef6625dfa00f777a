package newfs

import (
	"bytes"
	"encoding/binary"
)

// On-disk record shapes, mirroring newfs_super_d / newfs_inode_d /
// newfs_dentry_d from types.h. Fields are fixed-width so records decode
// with a single binary.Read the way KarpelesLab-squashfs decodes its own
// on-disk structures.

type superblockRecord struct {
	Magic          uint32
	SizeUsage      uint32
	MapInodeBlocks uint32
	MapInodeOffset uint32
	MapDataBlocks  uint32
	MapDataOffset  uint32
	InodeOffset    uint32
	DataOffset     uint32
}

const magicNum uint32 = 0x00001511

const superblockRecordSize = 8 * 4

type inodeRecord struct {
	Ino      uint32
	Size     uint32
	DirCount uint32
	FType    uint32
	BlockNum [dataPerFile]uint32
}

const dataPerFile = 4

const inodeRecordSize = 4*4 + 4*dataPerFile

type dentryRecord struct {
	FName [maxFileName]byte
	FType uint32
	Ino   uint32
}

const maxFileName = 128

const dentryRecordSize = maxFileName + 4 + 4

func decodeSuperblock(buf []byte) (*superblockRecord, error) {
	var rec superblockRecord
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func encodeSuperblock(rec *superblockRecord) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.LittleEndian, rec)
	return b.Bytes()
}

func decodeInode(buf []byte) (*inodeRecord, error) {
	var rec inodeRecord
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func encodeInode(rec *inodeRecord) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.LittleEndian, rec)
	return b.Bytes()
}

func decodeDentry(buf []byte) (*dentryRecord, error) {
	var rec dentryRecord
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func encodeDentry(rec *dentryRecord) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.LittleEndian, rec)
	return b.Bytes()
}

// name returns the dentry record's file name up to the first NUL, matching
// the C side's fixed-size, NUL-padded char array.
func (r *dentryRecord) name() string {
	i := bytes.IndexByte(r.FName[:], 0)
	if i < 0 {
		i = len(r.FName)
	}
	return string(r.FName[:i])
}

func setDentryName(rec *dentryRecord, name string) {
	for i := range rec.FName {
		rec.FName[i] = 0
	}
	copy(rec.FName[:], name)
}
