// SPDX-License-Identifier: GPL-3.0-or-later
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/CrawX/go-mail-receptionist/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	BuiltinModel      = "builtin-hash-v1"
	BuiltinDimensions = 1024

	wordWeight  = 1.0
	ngramWeight = 0.35
)

var ngramSizes = []int{3, 4}

// German and English function words which carry no topic.
var stopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`
		a an and um auf aus are as at be bei bin bist bitte by da dank danke das dass dem den der
		des die dir du ein eine einem einen einer eines er es für gern gerne hallo hat habe haben
		hier ich ihr im in ist ja kann kannst können könnte mich mir mit möchte möchten nicht noch
		nur oder sehr sich sie sind so und uns vielen vom von vor wann war was wie wir wird zu zum
		zur the to of for is it you i me my we our your this that please thanks thank hello hi
		dear with on`) {
		stopwords[w] = true
	}
}

// BuiltinEmbedder is a deterministic feature hashing embedder. Every token contributes its word
// feature and the character 3- and 4-grams of "<token>", so inflected and compound German words
// still share most of their dimensions.
type BuiltinEmbedder struct{}

func NewBuiltinEmbedder() *BuiltinEmbedder {
	return &BuiltinEmbedder{}
}

func (b *BuiltinEmbedder) Model() string {
	return BuiltinModel
}

func (b *BuiltinEmbedder) Embed(ctx context.Context, text string) (domain.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := make([]float64, BuiltinDimensions)
	for _, token := range tokenize(text) {
		addToken(sum, token)
	}

	vector := make(domain.Vector, BuiltinDimensions)
	n := norm2(sum)
	if n == 0 {
		return vector, nil
	}
	for i, v := range sum {
		vector[i] = float32(v / n)
	}
	return vector, nil
}

func tokenize(text string) []string {
	folded := cases.Fold().String(norm.NFKC.String(text))
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if stopwords[f] || utf8.RuneCountInString(f) < 2 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// addToken adds the unit length feature vector of token to sum.
func addToken(sum []float64, token string) {
	features := map[uint32]float64{}
	add := func(feature string, weight float64) {
		h := fnv.New32a()
		h.Write([]byte(feature))
		hash := h.Sum32()

		sign := 1.0
		if hash>>31 == 1 {
			sign = -1.0
		}
		features[hash%BuiltinDimensions] += sign * weight
	}

	add("w:"+token, wordWeight)
	padded := []rune("<" + token + ">")
	for _, n := range ngramSizes {
		for i := 0; i+n <= len(padded); i++ {
			add("g:"+string(padded[i:i+n]), ngramWeight)
		}
	}

	var n float64
	for _, v := range features {
		n += v * v
	}
	n = math.Sqrt(n)
	if n == 0 {
		return
	}

	for idx, v := range features {
		sum[idx] += v / n
	}
}

func norm2(v []float64) float64 {
	var n float64
	for _, x := range v {
		n += x * x
	}
	return math.Sqrt(n)
}
