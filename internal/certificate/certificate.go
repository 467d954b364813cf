// Package certificate extracts credential fields from certificate text and
// compares certificates field by field.
package certificate

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/similarity"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/template"
)

// DuplicateThreshold is the field similarity above which two certificates
// are reported as duplicates.
const DuplicateThreshold = 0.90

// Info holds the fields extracted from one certificate.
type Info struct {
	HolderName        string `json:"holder_name"`
	IssueDate         string `json:"issue_date"`
	CertificateNumber string `json:"certificate_number"`
	IssuingAuthority  string `json:"issuing_authority"`
	Qualification     string `json:"qualification"`
}

// TemplateFields returns the values replaced by sentinels when the
// certificate is reduced to its template.
func (i Info) TemplateFields() template.Fields {
	return template.Fields{
		Name:       i.HolderName,
		Identifier: i.CertificateNumber,
		Date:       i.IssueDate,
	}
}

// FromFields builds an Info carrying only the template fields.
func FromFields(f template.Fields) Info {
	return Info{HolderName: f.Name, CertificateNumber: f.Identifier, IssueDate: f.Date}
}

// Merge returns i with every non-empty field of o applied over it.
func (i Info) Merge(o Info) Info {
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&i.HolderName, o.HolderName},
		{&i.IssueDate, o.IssueDate},
		{&i.CertificateNumber, o.CertificateNumber},
		{&i.IssuingAuthority, o.IssuingAuthority},
		{&i.Qualification, o.Qualification},
	} {
		if strings.TrimSpace(f.src) != "" {
			*f.dst = strings.TrimSpace(f.src)
		}
	}
	return i
}

// Patterns are tried in order; the first match wins.
var (
	namePatterns = compile(
		`(?:name|holder|awarded to|presented to)[:\s]+([A-Z][a-z]+(?: [A-Z][a-z]+)+)`,
		`(?:mr\.|ms\.|mrs\.|dr\.)\s+([A-Z][a-z]+(?: [A-Z][a-z]+)+)`,
		`(?:this is to certify that)\s+([A-Z][a-z]+(?: [A-Z][a-z]+)+)`,
	)
	datePatterns = compile(
		`(?:date|issued on|awarded on)[:\s]+(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`,
		`(\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{4})`,
		`(\d{4}[-/]\d{1,2}[-/]\d{1,2})`,
	)
	numberPatterns = compile(
		`(?:certificate|cert|serial|reg|registration) (?:no|number|#)[:\s]*([A-Z0-9-]+)`,
		`(?:number|no)[:\s]*([A-Z]{2,4}-?\d{4,8})`,
	)
	authorityPatterns = compile(
		`(?:issued by|awarded by|from|by)[:\s]+([A-Z][a-z]+(?: [A-Z][a-z]+){1,5})`,
		`(University of [A-Z][a-z]+)`,
		`((?:[A-Z][a-z]+\s+){1,3}(?:University|Institute|College|Academy))`,
	)
	qualificationPatterns = compile(
		`(Bachelor of (?:Arts|Science|Engineering|Technology))`,
		`(Master of (?:Arts|Science|Engineering|Technology|Business Administration))`,
		`\b((?:B\.?S|M\.?S|B\.?Tech|M\.?Tech|MBA|Ph\.?D)\b\.?)`,
		`(?:degree|diploma|certificate) (?:in|of)\s+([A-Za-z ]+)`,
	)
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

func firstMatch(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// Extract pulls the credential fields out of certificate text. Fields that
// cannot be found are left empty.
func Extract(text string) Info {
	return Info{
		HolderName:        firstMatch(text, namePatterns),
		IssueDate:         firstMatch(text, datePatterns),
		CertificateNumber: firstMatch(text, numberPatterns),
		IssuingAuthority:  firstMatch(text, authorityPatterns),
		Qualification:     firstMatch(text, qualificationPatterns),
	}
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// CredentialsDiffer reports whether the holder or the certificate number of
// a and b differ, ignoring case.
func CredentialsDiffer(a, b Info) bool {
	return fold(a.HolderName) != fold(b.HolderName) ||
		fold(a.CertificateNumber) != fold(b.CertificateNumber)
}

// FieldSimilarity averages per-field agreement over the fields present in
// both certificates. Equal values score 1; holder and authority also earn
// partial credit for shared words.
func FieldSimilarity(a, b Info) float64 {
	fields := []struct {
		x, y    string
		partial bool
	}{
		{a.HolderName, b.HolderName, true},
		{a.CertificateNumber, b.CertificateNumber, false},
		{a.IssuingAuthority, b.IssuingAuthority, true},
		{a.Qualification, b.Qualification, false},
	}
	var score float64
	compared := 0
	for _, f := range fields {
		if f.x == "" || f.y == "" {
			continue
		}
		compared++
		x, y := fold(f.x), fold(f.y)
		switch {
		case x == y:
			score++
		case f.partial:
			score += similarity.TokenSetJaccard(x, y)
		}
	}
	if compared == 0 {
		return 0
	}
	return score / float64(compared)
}

// Evidence describes the reference a forged certificate was cut from.
type Evidence struct {
	MatchedCertificate string  `json:"matched_certificate"`
	TemplateSimilarity float64 `json:"template_similarity"`
	OriginalHolder     string  `json:"original_holder"`
	OriginalCertNumber string  `json:"original_cert_number"`
	OriginalIssueDate  string  `json:"original_issue_date"`
}

// Duplicate is a reference whose fields nearly equal the query's.
type Duplicate struct {
	CertificateID string  `json:"certificate_id"`
	Similarity    float64 `json:"similarity"`
	HolderName    string  `json:"holder_name"`
}

// Explain renders a verdict for people. Percentages in evidence and
// duplicates are expected to be already rounded.
func Explain(evidence *Evidence, duplicates []Duplicate) string {
	switch {
	case evidence != nil:
		return fmt.Sprintf(
			"Certificate forgery detected! This certificate uses the same template as certificate '%s' "+
				"but with different credentials. Template similarity: %.2f%%. Original holder: %s. "+
				"This suggests the certificate has been modified or forged.",
			evidence.MatchedCertificate, evidence.TemplateSimilarity, orUnknown(evidence.OriginalHolder),
		)
	case len(duplicates) > 0:
		d := duplicates[0]
		return fmt.Sprintf(
			"Duplicate certificate detected! Found %d certificate(s) with very similar information "+
				"(%.2f%% similarity). Possible duplicate of certificate issued to %s.",
			len(duplicates), d.Similarity, orUnknown(d.HolderName),
		)
	default:
		return "Certificate appears authentic. No matching templates or duplicates found in database."
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
