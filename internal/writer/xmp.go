package writer

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"golang.org/x/text/language"
)

// xmpPacket mirrors the rdf:RDF/rdf:Description shape used to read XMP
// packets, inverted here for serialisation: marshalling produces the same
// nested Alt/Seq wrappers a reader expects to find.
type xmpPacket struct {
	XMLName xml.Name `xml:"x:xmpmeta"`
	XMLNS   string   `xml:"xmlns:x,attr"`
	RDF     rdfRDF   `xml:"rdf:RDF"`
}

type rdfRDF struct {
	XMLNS        string           `xml:"xmlns:rdf,attr"`
	Descriptions []rdfDescription `xml:"rdf:Description"`
}

type rdfDescription struct {
	About string `xml:"rdf:about,attr"`

	XMLNSDC      string `xml:"xmlns:dc,attr"`
	XMLNSXMP     string `xml:"xmlns:xmp,attr"`
	XMLNSPDF     string `xml:"xmlns:pdf,attr"`
	XMLNSPDFUAID string `xml:"xmlns:pdfuaid,attr"`

	Title    altString `xml:"dc:title"`
	Creator  seqString `xml:"dc:creator"`
	Language string    `xml:"dc:language,omitempty"`

	Producer string `xml:"pdf:Producer,omitempty"`

	CreateDate   string `xml:"xmp:CreateDate,omitempty"`
	ModifyDate   string `xml:"xmp:ModifyDate,omitempty"`
	MetadataDate string `xml:"xmp:MetadataDate,omitempty"`

	PDFUAPart int `xml:"pdfuaid:part"`
}

type altString struct {
	Alt struct {
		LI []string `xml:"rdf:li"`
	} `xml:"rdf:Alt"`
}

func newAltString(s string) altString {
	var a altString
	if s != "" {
		a.Alt.LI = []string{s}
	}
	return a
}

type seqString struct {
	Seq struct {
		LI []string `xml:"rdf:li"`
	} `xml:"rdf:Seq"`
}

func newSeqString(s string) seqString {
	var q seqString
	if s != "" {
		q.Seq.LI = []string{s}
	}
	return q
}

// XMPFields is the set of values injected into a synthesised XMP packet.
type XMPFields struct {
	Title        string
	Creator      string
	Lang         string
	Producer     string
	CreateDate   string
	ModifyDate   string
	MetadataDate string
}

// BuildXMP renders fields as a complete XMP packet wrapped in the standard
// `<?xpacket?>` processing instructions, validating Lang as BCP-47 before
// injection. All string content is XML-escaped by encoding/xml.
func BuildXMP(fields XMPFields) ([]byte, error) {
	lang := fields.Lang
	if lang == "" {
		lang = "en-US"
	}
	if _, err := language.Parse(lang); err != nil {
		return nil, fmt.Errorf("xmp: invalid language tag %q: %w", lang, err)
	}

	desc := rdfDescription{
		About:        "",
		XMLNSDC:      "http://purl.org/dc/elements/1.1/",
		XMLNSXMP:     "http://ns.adobe.com/xap/1.0/",
		XMLNSPDF:     "http://ns.adobe.com/pdf/1.3/",
		XMLNSPDFUAID: "http://www.aiim.org/pdfua/ns/id/",
		Title:        newAltString(fields.Title),
		Creator:      newSeqString(fields.Creator),
		Language:     lang,
		Producer:     fields.Producer,
		CreateDate:   fields.CreateDate,
		ModifyDate:   fields.ModifyDate,
		MetadataDate: fields.MetadataDate,
		PDFUAPart:    1,
	}

	pkt := xmpPacket{
		XMLNS: "adobe:ns:meta/",
		RDF: rdfRDF{
			XMLNS:        "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
			Descriptions: []rdfDescription{desc},
		},
	}

	body, err := xml.MarshalIndent(pkt, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("xmp: marshal: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("<?xpacket begin=\"﻿\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>\n")
	buf.Write(body)
	buf.WriteString("\n<?xpacket end=\"w\"?>")
	return buf.Bytes(), nil
}
