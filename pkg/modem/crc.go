package modem

const CRC8Poly = 0x07

type CRC8Checker struct {
	Poly uint8
}

func (c CRC8Checker) Sum(data []byte) uint8 {
	poly := c.Poly
	if poly == 0 {
		poly = CRC8Poly
	}

	var crc uint8
	for _, b := range data {
		crc ^= b
		for k := 0; k < 8; k++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func (c CRC8Checker) Check(data []byte, sum uint8) bool {
	return c.Sum(data) == sum
}
