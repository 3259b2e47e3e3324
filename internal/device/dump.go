package device

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexDump formats data as 16-byte rows with an offset column and a
// printable-ASCII gutter.
func HexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < len(data); i += 16 {
		end := min(i+16, len(data))
		fmt.Fprintf(&sb, "%04X: ", i)
		for j := i; j < end; j++ {
			fmt.Fprintf(&sb, "%02X ", data[j])
		}
		sb.WriteString(strings.Repeat("   ", 16-(end-i)))
		sb.WriteString(" |")
		for j := i; j < end; j++ {
			if b := data[j]; b >= 32 && b <= 126 {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// HexString is data as one upper-case hex run.
func HexString(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}
