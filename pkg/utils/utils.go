package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// Placeholder is substituted by Format
const Placeholder = "{}"

func Md5(byt []byte) string {
	h := md5.New()
	h.Write(byt)
	return hex.EncodeToString(h.Sum(nil))
}

func If(cond bool, tv, fv interface{}) interface{} {
	if cond {
		return tv
	}
	return fv
}

// ParseCommaSeparated splits in by comma, removes spaces and drops empty items
func ParseCommaSeparated(in string) []string {
	spl := strings.Split(in, ",")
	out := make([]string, 0)
	for _, v := range spl {
		vc := strings.ReplaceAll(v, " ", "")
		if vc == "" {
			continue
		}
		out = append(out, vc)
	}
	return out
}

// Format replaces each "{}" in template with args in order, e.g.
// Format("{}-dynamic.yaml", "svc-a") returns "svc-a-dynamic.yaml".
// Placeholders without a matching arg are kept as is.
func Format(template string, args ...interface{}) string {
	if len(args) == 0 {
		return template
	}
	var (
		sb  strings.Builder
		idx = 0
	)
	for {
		pos := strings.Index(template, Placeholder)
		if pos < 0 || idx >= len(args) {
			sb.WriteString(template)
			return sb.String()
		}
		sb.WriteString(template[:pos])
		sb.WriteString(fmt.Sprint(args[idx]))
		template = template[pos+len(Placeholder):]
		idx++
	}
}
