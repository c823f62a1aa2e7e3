package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLemmatize(t *testing.T) {
	tests := []struct {
		word, tag, want string
	}{
		{"Developed", "VBD", "develop"},
		{"optimized", "VBN", "optimize"},
		{"managed", "VBD", "manage"},
		{"architected", "VBD", "architect"},
		{"led", "VBD", "lead"},
		{"built", "VBN", "build"},
		{"planned", "VBD", "plan"},
		{"applied", "VBD", "apply"},
		{"hoped", "VBD", "hope"},
		{"opened", "VBD", "open"},
		{"deploying", "VBG", "deploy"},
		{"managing", "VBG", "manage"},
		{"running", "VBG", "run"},
		{"analyzes", "VBZ", "analyze"},
		{"teaches", "VBZ", "teach"},
		{"is", "VBZ", "be"},
		{"has", "VBZ", "have"},
		{"services", "NNS", "service"},
		{"libraries", "NNS", "library"},
		{"classes", "NNS", "class"},
		{"Kubernetes", "NNP", "kubernetes"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, Lemmatize(tt.word, tt.tag))
		})
	}
}

func TestUniversalPOS(t *testing.T) {
	assert.Equal(t, POSAux, universalPOS("VBZ", "be", "VBN"))
	assert.Equal(t, POSAux, universalPOS("VBP", "have", "VBN"))
	assert.Equal(t, POSVerb, universalPOS("VBP", "have", "NNS"))
	assert.Equal(t, POSVerb, universalPOS("VBD", "build", "NNS"))
	assert.Equal(t, POSSconj, universalPOS("IN", "because", "PRP"))
	assert.Equal(t, POSAdp, universalPOS("IN", "in", "NNP"))
	assert.Equal(t, POSPropn, universalPOS("NNP", "go", ""))
	assert.Equal(t, POSPunct, universalPOS("•", "•", ""))
	assert.Equal(t, POSOther, universalPOS("???X", "x", ""))
}
