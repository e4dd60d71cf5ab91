package wasmmod

import "github.com/wasmut/wasmut/internal/leb128"

const nameSubsectionFunction = 1

// decodeFunctionNames parses the function name subsection of the "name"
// custom section, returning a map keyed by module-wide function index. A
// missing or malformed "name" section yields an empty map rather than an
// error: names are cosmetic (functions fall back to import or export
// names, then to ""), never required for correctness.
func decodeFunctionNames(buf []byte) map[uint32]string {
	out := map[uint32]string{}
	if buf == nil {
		return out
	}
	pos := 0
	for pos < len(buf) {
		if pos >= len(buf) {
			break
		}
		subID := buf[pos]
		pos++
		size, n, err := leb128.LoadUint32(buf[pos:])
		if err != nil {
			return out
		}
		pos += int(n)
		if pos+int(size) > len(buf) {
			return out
		}
		content := buf[pos : pos+int(size)]
		pos += int(size)

		if subID != nameSubsectionFunction {
			continue
		}
		count, n, err := leb128.LoadUint32(content)
		if err != nil {
			continue
		}
		cpos := int(n)
		for i := uint32(0); i < count; i++ {
			idx, n, err := leb128.LoadUint32(content[cpos:])
			if err != nil {
				break
			}
			cpos += int(n)
			name, rest, err := decodeName(content[cpos:])
			if err != nil {
				break
			}
			out[idx] = name
			cpos = len(content) - len(rest)
		}
	}
	return out
}
