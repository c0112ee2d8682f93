package archive

// crcPoly is the reflected CRC-32 polynomial used by the archive format.
const crcPoly uint32 = 0xEDB88320

// crcTable is the 256-entry lookup table for byte-at-a-time CRC updates.
var crcTable = makeCRCTable()

func makeCRCTable() [256]uint32 {
	var table [256]uint32
	for i := range table {
		crc := uint32(i)
		for range 8 {
			if crc&1 == 1 {
				crc = (crc >> 1) ^ crcPoly
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}

// Checksum computes the CRC-32 of data: reflected polynomial 0xEDB88320,
// initialized to all-ones, complemented on output. Deterministic and
// side-effect free.
func Checksum(data []byte) uint32 {
	crc := ^uint32(0)
	for _, b := range data {
		crc = (crc >> 8) ^ crcTable[byte(crc)^b]
	}
	return ^crc
}
