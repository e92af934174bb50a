package wallet

// deriveUniqueID implements spec.md §3 invariant 5: "uniqueID ==
// reverse(chainMagic ++ firstChained.hash160[:5])". The concatenation is
// nine bytes (4 + 5) and the field is six; this implementation reverses
// the full nine-byte concatenation and keeps its first six bytes, which is
// the natural reading of "reversed" that still yields a fixed six-byte
// field (an Open Question the distilled spec leaves unresolved — see
// DESIGN.md).
func deriveUniqueID(chainMagic [4]byte, hash160 [20]byte) [6]byte {
	buf := make([]byte, 0, 9)
	buf = append(buf, chainMagic[:]...)
	buf = append(buf, hash160[:5]...)
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	var out [6]byte
	copy(out[:], buf[:6])
	return out
}
