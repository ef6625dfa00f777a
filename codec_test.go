package newfs

import "testing"

func TestSuperblockRoundTrip(t *testing.T) {
	rec := &superblockRecord{
		Magic:          magicNum,
		SizeUsage:      42,
		MapInodeBlocks: 1,
		MapInodeOffset: 1024,
		MapDataBlocks:  1,
		MapDataOffset:  2048,
		InodeOffset:    3072,
		DataOffset:     527360,
	}
	buf := encodeSuperblock(rec)
	if len(buf) != superblockRecordSize {
		t.Fatalf("encoded size = %d, want %d", len(buf), superblockRecordSize)
	}
	got, err := decodeSuperblock(buf)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *rec {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestInodeRecordRoundTrip(t *testing.T) {
	rec := &inodeRecord{
		Ino:      7,
		Size:     123,
		DirCount: 2,
		FType:    uint32(TypeDirectory),
		BlockNum: [dataPerFile]uint32{10, 11, 12, 13},
	}
	buf := encodeInode(rec)
	if len(buf) != inodeRecordSize {
		t.Fatalf("encoded size = %d, want %d", len(buf), inodeRecordSize)
	}
	got, err := decodeInode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *rec {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestDentryRecordRoundTrip(t *testing.T) {
	rec := &dentryRecord{FType: uint32(TypeRegular), Ino: 3}
	setDentryName(rec, "hello.txt")

	buf := encodeDentry(rec)
	if len(buf) != dentryRecordSize {
		t.Fatalf("encoded size = %d, want %d", len(buf), dentryRecordSize)
	}
	got, err := decodeDentry(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.name() != "hello.txt" {
		t.Fatalf("name = %q, want %q", got.name(), "hello.txt")
	}
	if got.Ino != rec.Ino || got.FType != rec.FType {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
}

func TestDentryNameTruncatesAtNUL(t *testing.T) {
	rec := &dentryRecord{}
	rec.FName[0] = 'a'
	// trailing garbage past the NUL terminator must be ignored
	for i := 2; i < len(rec.FName); i++ {
		rec.FName[i] = 'x'
	}
	if rec.name() != "a" {
		t.Fatalf("name() = %q, want %q", rec.name(), "a")
	}
}
