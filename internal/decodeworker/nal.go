package decodeworker

import "fmt"

// extractAccessUnits walks a video block's length-prefixed record stream
// and splits it into the sequence/picture parameter payloads and the
// per-sample codec access units.
//
// The core does not parse a real container format (that is an external
// collaborator's job); a video block here is a minimal self-describing
// stream of records, each a 4-byte big-endian length followed by that
// many bytes. The first record is SPS, the second PPS, and every
// subsequent record is one access unit - exactly n of them, where n is
// the caller-supplied expected frame count.
func extractAccessUnits(block []byte, expectedFrames int) (sps, pps []byte, units [][]byte, err error) {
	records, err := splitRecords(block)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, nil, fmt.Errorf("decodeworker: video block has %d records, need at least SPS+PPS", len(records))
	}

	sps, pps = records[0], records[1]
	units = records[2:]
	if len(units) != expectedFrames {
		return nil, nil, nil, fmt.Errorf("decodeworker: video block has %d access units, expected %d", len(units), expectedFrames)
	}
	return sps, pps, units, nil
}

func splitRecords(block []byte) ([][]byte, error) {
	var records [][]byte
	pos := 0
	for pos < len(block) {
		if pos+4 > len(block) {
			return nil, fmt.Errorf("decodeworker: truncated record length at offset %d", pos)
		}
		n := int(block[pos])<<24 | int(block[pos+1])<<16 | int(block[pos+2])<<8 | int(block[pos+3])
		pos += 4
		if n < 0 || pos+n > len(block) {
			return nil, fmt.Errorf("decodeworker: record length %d overruns block at offset %d", n, pos)
		}
		records = append(records, block[pos:pos+n])
		pos += n
	}
	return records, nil
}
