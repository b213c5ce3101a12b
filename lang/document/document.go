// Package document loads the structured program document and validates its
// structural integrity (component 9 of the design): unique positive
// instruction order, non-empty opcodes, correctly named/ordered argument
// children, and a one-shot label table with duplicate detection.
//
// Parsing the raw document text into this tree is treated as an external
// collaborator, kept to a thin encoding/xml decode (see Load) so the
// integrity check in Check has a concrete tree to validate.
package document

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/DC1996/ipp21-interpreter/lang/errs"
)

// rawDocument is the on-the-wire shape: a program root with instruction
// children, each with order/opcode attributes and argN children. XMLName
// accepts any root element so that Load can report a wrong root as 32.
type rawDocument struct {
	XMLName      xml.Name
	Instructions []rawInstruction `xml:"instruction"`
}

// Order is kept as the raw attribute text rather than an int: a malformed
// numeral (e.g. "abc") is a document-integrity error (32), not a
// well-formedness error (31), so its parsing belongs in Check alongside the
// rest of the integrity checks rather than in encoding/xml's attribute
// conversion.
type rawInstruction struct {
	Order  string   `xml:"order,attr"`
	Opcode string   `xml:"opcode,attr"`
	Args   []rawArg `xml:",any"`
}

type rawArg struct {
	XMLName xml.Name
	Type    string `xml:"type,attr"`
	Value   string `xml:",chardata"`
}

// Load decodes r as the program document. A malformed (not well-formed)
// document fails with exit code 31; a well-formed document whose root
// element is not <program> fails with exit code 32.
func Load(r io.Reader) (*rawDocument, error) {
	var doc rawDocument
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, errs.New(31, fmt.Sprintf("document is not well-formed: %s", err))
	}
	if doc.XMLName.Local != "program" {
		return nil, errs.Newf(32, "root element must be <program>, got <%s>", doc.XMLName.Local)
	}
	return &doc, nil
}
