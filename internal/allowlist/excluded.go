package allowlist

import (
	"strings"

	"github.com/garyjia/timecard-reconciler/internal/textnorm"
)

// excludedPhrases are time-card boilerplate and column labels. Matched as
// substrings of the folded candidate.
var excludedPhrases = []string{
	"HORARIO DE TRABALHO",
	"FOLHA DE PONTO",
	"CARTAO DE PONTO",
	"CARTAO PONTO",
	"ESPELHO DE PONTO",
	"CONTROLE DE FREQUENCIA",
	"DIA E1 S1 E2 S2",
	"DOM FOLGA FOLGA",
	"ENT 1",
	"ENT 2",
	"SAI 1",
	"SAI 2",
	"C.PRE",
	"H.NOT",
	"H.FAL",
	"H.EXT",
	"E.NOT",
	"TRT RN",
	"ASSINADO DIGITALMENTE",
	"DOCUMENTO ASSINADO",
}

// excludedWords reject a candidate when any of its words equals one of them:
// structural labels, address fragments and short code sequences that appear
// in some layouts as all-caps runs.
var excludedWords = map[string]struct{}{
	"PONTO": {}, "FOLHA": {}, "CONTROLE": {}, "PERIODO": {}, "DATA": {},
	"EMPRESA": {}, "CNPJ": {}, "CPF": {}, "MATRICULA": {}, "CARGO": {},
	"ENDERECO": {}, "RUA": {}, "AVENIDA": {}, "AV": {}, "BAIRRO": {}, "CEP": {},
	"LTDA": {}, "EIRELI": {}, "TECNOLOGIA": {}, "INFORMATICA": {},
	"TOTAL": {}, "TOTAIS": {}, "SALDO": {}, "PREVISTO": {}, "REALIZADO": {},
	"NMO": {}, "PQ": {}, "RQ": {}, "PS": {}, "RS": {},
	"SEG": {}, "TER": {}, "QUA": {}, "QUI": {}, "SEX": {}, "SAB": {}, "DOM": {},
}

// IsExcluded reports whether s contains a boilerplate phrase or word.
func IsExcluded(s string) bool {
	folded := textnorm.Fold(s)
	for _, p := range excludedPhrases {
		if strings.Contains(folded, p) {
			return true
		}
	}
	for _, w := range strings.Fields(folded) {
		if _, ok := excludedWords[strings.Trim(w, ".,;:-")]; ok {
			return true
		}
	}
	return false
}
