package midifile

// maxVLQ is the largest value a four byte variable-length quantity can hold
const maxVLQ = 0x0FFFFFFF

// appendVLQ appends v as a MIDI variable-length quantity: seven bits per
// byte, most significant group first, continuation bit on all but the last.
func appendVLQ(dst []byte, v uint32) []byte {
	var buf [4]byte
	i := len(buf) - 1
	buf[i] = byte(v & 0x7F)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		buf[i] = byte(v&0x7F) | 0x80
	}
	return append(dst, buf[i:]...)
}
