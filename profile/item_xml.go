package profile

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/joyremap/joyremap/action"
	"github.com/joyremap/joyremap/input"
)

var itemTags = map[string]input.Kind{
	"axis":   input.KindAxis,
	"button": input.KindButton,
	"hat":    input.KindHat,
	"key":    input.KindKeyboard,
}

func itemTag(kind input.Kind) string {
	for tag, k := range itemTags {
		if k == kind {
			return tag
		}
	}
	return ""
}

// UnmarshalXML decodes an input item. The element name selects the input
// kind and the children are resolved through the action registry.
func (i *Item) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	kind, ok := itemTags[start.Name.Local]
	if !ok {
		return errors.Errorf("unknown input item %q", start.Name.Local)
	}
	i.Kind = kind
	i.Actions = nil

	for _, attr := range start.Attr {
		var err error
		switch attr.Name.Local {
		case "id", "scan-code":
			i.InputID, err = strconv.Atoi(attr.Value)
		case "extended":
			i.Extended, err = strconv.ParseBool(attr.Value)
		case "lower-limit":
			var v float64
			if v, err = strconv.ParseFloat(attr.Value, 64); err == nil {
				i.LowerLimit = &v
			}
		case "upper-limit":
			var v float64
			if v, err = strconv.ParseFloat(attr.Value, 64); err == nil {
				i.UpperLimit = &v
			}
		}
		if err != nil {
			return errors.Wrapf(err, "invalid %s attribute on %s item", attr.Name.Local, start.Name.Local)
		}
	}

	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			reg, ok := action.Lookup(el.Name.Local)
			if !ok {
				return errors.Errorf("unknown action tag %q", el.Name.Local)
			}
			if !reg.Accepts(kind) {
				return errors.Errorf("action %q cannot be attached to a %s input", el.Name.Local, kind)
			}
			act := reg.Constructor()
			if err := d.DecodeElement(act, &el); err != nil {
				return errors.Wrapf(err, "failed to parse %q action", el.Name.Local)
			}
			i.Actions = append(i.Actions, act)
		case xml.EndElement:
			if el.Name == start.Name {
				return nil
			}
		}
	}
}

// MarshalXML encodes an input item and its actions.
func (i *Item) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	tag := itemTag(i.Kind)
	if tag == "" {
		return errors.Errorf("cannot serialize item of unknown kind %d", i.Kind)
	}

	start := xml.StartElement{Name: xml.Name{Local: tag}}
	idAttr := "id"
	if i.Kind == input.KindKeyboard {
		idAttr = "scan-code"
	}
	start.Attr = append(start.Attr, xml.Attr{
		Name: xml.Name{Local: idAttr}, Value: strconv.Itoa(i.InputID),
	})
	if i.Kind == input.KindKeyboard {
		start.Attr = append(start.Attr, xml.Attr{
			Name: xml.Name{Local: "extended"}, Value: strconv.FormatBool(i.Extended),
		})
	}
	if i.LowerLimit != nil {
		start.Attr = append(start.Attr, xml.Attr{
			Name: xml.Name{Local: "lower-limit"}, Value: strconv.FormatFloat(*i.LowerLimit, 'g', -1, 64),
		})
	}
	if i.UpperLimit != nil {
		start.Attr = append(start.Attr, xml.Attr{
			Name: xml.Name{Local: "upper-limit"}, Value: strconv.FormatFloat(*i.UpperLimit, 'g', -1, 64),
		})
	}

	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, act := range i.Actions {
		if err := e.EncodeElement(act, xml.StartElement{Name: xml.Name{Local: act.Tag()}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}
