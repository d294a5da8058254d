package bmd

// xorKey is the 16-byte key of the v12 chained XOR layer.
var xorKey = [16]byte{
	0xD1, 0x73, 0x52, 0xF6, 0xD2, 0x9A, 0xCB, 0x27,
	0x3E, 0xAF, 0x59, 0x31, 0x37, 0xB3, 0xE7, 0xA2,
}

// decryptXOR reverses the v12 layer. The chain starts at 0x5E:
//
//	out[i] = (data[i] ^ key[i&15]) - chain
//	chain  = data[i] + 0x3D
func decryptXOR(data []byte) []byte {
	out := make([]byte, len(data))
	chain := byte(0x5E)
	for i, b := range data {
		out[i] = (b ^ xorKey[i&15]) - chain
		chain = b + 0x3D
	}
	return out
}
