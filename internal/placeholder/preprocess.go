package placeholder

import (
	"strings"

	"github.com/thereceipt/receipt-interpreter/pkg/order"
)

var jsonEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Preprocess substitutes every primary token found in raw document text with
// its resolved value, escaped for use inside a JSON string. Each token is
// resolved once per call, so repeated occurrences share one value. Substituted
// values are not scanned again for tokens. Legacy tokens are left alone.
func (r *Resolver) Preprocess(raw string, o *order.Order) string {
	var pairs []string
	for _, token := range PrimaryTokens {
		if !strings.Contains(raw, token) {
			continue
		}
		pairs = append(pairs, token, jsonEscaper.Replace(r.Resolve(token, o)))
	}

	if len(pairs) == 0 {
		return raw
	}
	return strings.NewReplacer(pairs...).Replace(raw)
}
