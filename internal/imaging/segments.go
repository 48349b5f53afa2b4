package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP1 = 0xE1
	markerAPP2 = 0xE2

	// maxSegmentPayload is the largest payload a marker segment can carry
	// (the 16-bit length field counts its own two bytes).
	maxSegmentPayload = 0xFFFF - 2
)

var (
	exifSignature = []byte("Exif\x00\x00")
	iccSignature  = []byte("ICC_PROFILE\x00")

	errNotJPEG = errors.New("not a JPEG stream")
)

// walkSegments calls fn for every marker segment before the first scan.
func walkSegments(data []byte, fn func(marker byte, payload []byte)) error {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return errNotJPEG
	}
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return fmt.Errorf("bad marker at offset %d", pos)
		}
		marker := data[pos+1]
		if marker == 0xFF {
			pos++
			continue
		}
		if marker == markerSOS || marker == markerEOI {
			return nil
		}
		length := int(data[pos+2])<<8 | int(data[pos+3])
		if length < 2 || pos+2+length > len(data) {
			return fmt.Errorf("truncated segment at offset %d", pos)
		}
		fn(marker, data[pos+4:pos+2+length])
		pos += 2 + length
	}
	return nil
}

// extractICC reassembles an ICC profile split across APP2 segments.
func extractICC(data []byte) []byte {
	type chunk struct {
		seq  int
		data []byte
	}
	var chunks []chunk
	_ = walkSegments(data, func(marker byte, payload []byte) {
		if marker != markerAPP2 || !bytes.HasPrefix(payload, iccSignature) {
			return
		}
		if len(payload) < len(iccSignature)+2 {
			return
		}
		chunks = append(chunks, chunk{
			seq:  int(payload[len(iccSignature)]),
			data: payload[len(iccSignature)+2:],
		})
	})
	if len(chunks) == 0 {
		return nil
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].seq < chunks[j].seq })

	var profile []byte
	for _, c := range chunks {
		profile = append(profile, c.data...)
	}
	return profile
}

// injectMetadata inserts an EXIF APP1 segment and ICC APP2 segments directly
// after the SOI marker of an encoded JPEG stream.
func injectMetadata(jpegData, exifRaw, icc []byte) ([]byte, error) {
	if len(jpegData) < 2 || jpegData[0] != 0xFF || jpegData[1] != markerSOI {
		return nil, errNotJPEG
	}

	var out bytes.Buffer
	out.Write(jpegData[:2])

	if len(exifRaw) > 0 {
		payload := append(append([]byte(nil), exifSignature...), exifRaw...)
		if len(payload) > maxSegmentPayload {
			return nil, fmt.Errorf("exif payload of %d bytes does not fit one segment", len(exifRaw))
		}
		writeSegment(&out, markerAPP1, payload)
	}

	if len(icc) > 0 {
		chunkSize := maxSegmentPayload - len(iccSignature) - 2
		total := (len(icc) + chunkSize - 1) / chunkSize
		if total > 255 {
			return nil, fmt.Errorf("icc profile of %d bytes is too large", len(icc))
		}
		for i := 0; i < total; i++ {
			end := (i + 1) * chunkSize
			if end > len(icc) {
				end = len(icc)
			}
			payload := append(append([]byte(nil), iccSignature...), byte(i+1), byte(total))
			payload = append(payload, icc[i*chunkSize:end]...)
			writeSegment(&out, markerAPP2, payload)
		}
	}

	out.Write(jpegData[2:])
	return out.Bytes(), nil
}

func writeSegment(w *bytes.Buffer, marker byte, payload []byte) {
	n := len(payload) + 2
	w.Write([]byte{0xFF, marker, byte(n >> 8), byte(n)})
	w.Write(payload)
}
