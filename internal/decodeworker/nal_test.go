package decodeworker

import "testing"

func encodeRecords(records ...[]byte) []byte {
	var out []byte
	for _, r := range records {
		n := len(r)
		out = append(out, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
		out = append(out, r...)
	}
	return out
}

func TestExtractAccessUnitsSplitsSpsPpsAndUnits(t *testing.T) {
	block := encodeRecords([]byte("sps"), []byte("pps"), []byte("au0"), []byte("au1"), []byte("au2"))

	sps, pps, units, err := extractAccessUnits(block, 3)
	if err != nil {
		t.Fatalf("extractAccessUnits: %v", err)
	}
	if string(sps) != "sps" || string(pps) != "pps" {
		t.Fatalf("sps/pps = %q/%q, want sps/pps", sps, pps)
	}
	if len(units) != 3 {
		t.Fatalf("len(units) = %d, want 3", len(units))
	}
	for i, want := range []string{"au0", "au1", "au2"} {
		if string(units[i]) != want {
			t.Fatalf("units[%d] = %q, want %q", i, units[i], want)
		}
	}
}

func TestExtractAccessUnitsRejectsCountMismatch(t *testing.T) {
	block := encodeRecords([]byte("sps"), []byte("pps"), []byte("au0"))

	if _, _, _, err := extractAccessUnits(block, 2); err == nil {
		t.Fatal("expected an error when access-unit count does not match expectedFrames")
	}
}

func TestExtractAccessUnitsRejectsFewerThanTwoRecords(t *testing.T) {
	block := encodeRecords([]byte("sps-only"))

	if _, _, _, err := extractAccessUnits(block, 0); err == nil {
		t.Fatal("expected an error with fewer than two records (no SPS+PPS pair)")
	}
}

func TestSplitRecordsRejectsTruncatedLength(t *testing.T) {
	if _, err := splitRecords([]byte{0, 0, 0}); err == nil {
		t.Fatal("expected an error for a truncated length prefix")
	}
}

func TestSplitRecordsRejectsOverrunLength(t *testing.T) {
	block := []byte{0, 0, 0, 10, 'a', 'b'} // claims 10 bytes, only 2 present
	if _, err := splitRecords(block); err == nil {
		t.Fatal("expected an error for a record length overrunning the block")
	}
}

func TestSplitRecordsEmptyBlockYieldsNoRecords(t *testing.T) {
	records, err := splitRecords(nil)
	if err != nil {
		t.Fatalf("splitRecords(nil): %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("len(records) = %d, want 0", len(records))
	}
}
