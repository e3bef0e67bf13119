package cursor

// Fletcher32 computes the Fletcher-32 checksum over data, matching the
// HDF5 library's H5_checksum_fletcher32. Data is processed as 16-bit
// big-endian words; a trailing odd byte becomes the high byte of a
// final word.
func Fletcher32(data []byte) uint32 {
	var sum1, sum2 uint32

	n := len(data) / 2
	i := 0
	for n > 0 {
		// Reduce in blocks of 360 words to keep the sums in range.
		block := n
		if block > 360 {
			block = 360
		}
		for j := 0; j < block; j++ {
			sum1 += uint32(data[i])<<8 | uint32(data[i+1])
			sum2 += sum1
			i += 2
		}
		sum1 = (sum1 & 0xFFFF) + (sum1 >> 16)
		sum2 = (sum2 & 0xFFFF) + (sum2 >> 16)
		n -= block
	}

	if len(data)%2 != 0 {
		sum1 += uint32(data[len(data)-1]) << 8
		sum2 += sum1
		sum1 = (sum1 & 0xFFFF) + (sum1 >> 16)
		sum2 = (sum2 & 0xFFFF) + (sum2 >> 16)
	}

	// Second reduction handles a possible carry from the first.
	sum1 = (sum1 & 0xFFFF) + (sum1 >> 16)
	sum2 = (sum2 & 0xFFFF) + (sum2 >> 16)

	return sum2<<16 | sum1
}
