package entsoe

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

type DocumentKind int

const (
	KindUnknown DocumentKind = iota
	KindAcknowledgement
	KindPublication
)

const (
	rootAcknowledgement = "Acknowledgement_MarketDocument"
	rootPublication     = "Publication_MarketDocument"
)

// Document is a decoded API response. Exactly one of Acknowledgement and
// Publication is set, matching Kind; for KindUnknown only Root is filled.
type Document struct {
	Kind            DocumentKind
	Root            string
	Acknowledgement *Acknowledgement
	Publication     *Publication
}

// Acknowledgement is returned instead of data, e.g. when nothing matches the query.
type Acknowledgement struct {
	MRID            string   `xml:"mRID"`
	CreatedDateTime string   `xml:"createdDateTime"`
	Reasons         []Reason `xml:"Reason"`
}

type Reason struct {
	Code string `xml:"code"`
	Text string `xml:"text"`
}

type Publication struct {
	MRID         string       `xml:"mRID"`
	Type         string       `xml:"type"`
	TimeInterval Interval     `xml:"period.timeInterval"`
	TimeSeries   []TimeSeries `xml:"TimeSeries"`
}

// TimeSeries is one raw block of prices, the API sends one per delivery day
// but a block may carry several periods.
type TimeSeries struct {
	MRID         string   `xml:"mRID"`
	BusinessType string   `xml:"businessType"`
	InDomain     string   `xml:"in_Domain.mRID"`
	OutDomain    string   `xml:"out_Domain.mRID"`
	Currency     string   `xml:"currency_Unit.name"`
	PriceUnit    string   `xml:"price_Measure_Unit.name"`
	CurveType    string   `xml:"curveType"`
	Periods      []Period `xml:"Period"`
}

type Period struct {
	TimeInterval Interval `xml:"timeInterval"`
	Resolution   string   `xml:"resolution"`
	Points       []Point  `xml:"Point"`
}

type Interval struct {
	Start string `xml:"start"`
	End   string `xml:"end"`
}

type Point struct {
	Position int    `xml:"position"`
	Amount   string `xml:"price.amount"` // EUR/MWh
}

// Transformer turns a raw response into a Document.
type Transformer interface {
	Transform(raw []byte) (*Document, error)
}

// XMLTransformer decodes the market document XML, picking the variant from
// the name of the root element.
type XMLTransformer struct{}

func (XMLTransformer) Transform(raw []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, &TransformError{Payload: raw, Err: errors.New("no root element")}
		}
		if err != nil {
			return nil, &TransformError{Payload: raw, Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		doc := &Document{Root: start.Name.Local}
		switch start.Name.Local {
		case rootAcknowledgement:
			var ack Acknowledgement
			if err := dec.DecodeElement(&ack, &start); err != nil {
				return nil, &TransformError{Payload: raw, Err: fmt.Errorf("decoding %s: %w", rootAcknowledgement, err)}
			}
			doc.Kind = KindAcknowledgement
			doc.Acknowledgement = &ack
		case rootPublication:
			var pub Publication
			if err := dec.DecodeElement(&pub, &start); err != nil {
				return nil, &TransformError{Payload: raw, Err: fmt.Errorf("decoding %s: %w", rootPublication, err)}
			}
			doc.Kind = KindPublication
			doc.Publication = &pub
		}
		return doc, nil
	}
}
