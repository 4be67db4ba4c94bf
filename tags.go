package cbor

import (
	"math"
	"time"

	"github.com/contentauth/c2pa-cbor/format"
)

// Standard-tag helpers. Each writer emits the tag head and its content as
// one item; each reader consumes both and fails with ErrTypeMismatch when
// the tag number does not match.

// WriteDateTime writes t as a tag 0 RFC 3339 date/time text string.
func WriteDateTime(e *Encoder, t time.Time) error {
	if err := e.WriteTag(format.TagDateTime); err != nil {
		return err
	}

	return e.WriteString(t.Format(time.RFC3339Nano))
}

// ReadDateTime reads a tag 0 date/time text string.
func ReadDateTime(d *Decoder) (time.Time, error) {
	start := d.pos

	if err := expectTag(d, format.TagDateTime); err != nil {
		return time.Time{}, err
	}

	s, err := d.ReadString()
	if err != nil {
		return time.Time{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, decodeErrf(start, ErrMalformed, "tag 0 content %q is not RFC 3339", s)
	}

	return t, nil
}

// WriteEpochTime writes t as a tag 1 POSIX epoch value: an integer when t
// falls on a whole second, otherwise a float.
func WriteEpochTime(e *Encoder, t time.Time) error {
	if err := e.WriteTag(format.TagEpochTime); err != nil {
		return err
	}

	if t.Nanosecond() == 0 {
		return e.WriteInt(t.Unix())
	}

	return e.WriteFloat64(float64(t.UnixNano()) / 1e9)
}

// ReadEpochTime reads a tag 1 epoch value carried as an integer or float.
func ReadEpochTime(d *Decoder) (time.Time, error) {
	start := d.pos

	if err := expectTag(d, format.TagEpochTime); err != nil {
		return time.Time{}, err
	}

	major, err := d.PeekMajorType()
	if err != nil {
		return time.Time{}, err
	}

	switch major {
	case format.MajorUnsigned, format.MajorNegative:
		sec, err := d.ReadInt()
		if err != nil {
			return time.Time{}, err
		}

		return time.Unix(sec, 0).UTC(), nil
	case format.MajorSimple:
		f, err := d.ReadFloat()
		if err != nil {
			return time.Time{}, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return time.Time{}, decodeErrf(start, ErrMalformed, "tag 1 content is not a finite number")
		}
		sec, frac := math.Modf(f)

		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	default:
		return time.Time{}, decodeErrf(start, ErrTypeMismatch, "tag 1 content is %s, not a number", major)
	}
}

// WriteURI writes uri as a tag 32 text string. The string is passed through
// verbatim; no URI validation is performed.
func WriteURI(e *Encoder, uri string) error {
	return writeTaggedString(e, format.TagURI, uri)
}

// ReadURI reads a tag 32 text string.
func ReadURI(d *Decoder) (string, error) {
	return readTaggedString(d, format.TagURI)
}

// WriteBase64URL writes s as a tag 33 text string. The content is expected
// to already be base64url-encoded; the codec does not re-encode or validate.
func WriteBase64URL(e *Encoder, s string) error {
	return writeTaggedString(e, format.TagBase64URL, s)
}

// ReadBase64URL reads a tag 33 text string verbatim.
func ReadBase64URL(d *Decoder) (string, error) {
	return readTaggedString(d, format.TagBase64URL)
}

// WriteBase64 writes s as a tag 34 text string. As with tag 33 the content
// is passed through verbatim.
func WriteBase64(e *Encoder, s string) error {
	return writeTaggedString(e, format.TagBase64, s)
}

// ReadBase64 reads a tag 34 text string verbatim.
func ReadBase64(d *Decoder) (string, error) {
	return readTaggedString(d, format.TagBase64)
}

func writeTaggedString(e *Encoder, tag uint64, s string) error {
	if err := e.WriteTag(tag); err != nil {
		return err
	}

	return e.WriteString(s)
}

func readTaggedString(d *Decoder, tag uint64) (string, error) {
	if err := expectTag(d, tag); err != nil {
		return "", err
	}

	return d.ReadString()
}

// expectTag reads a tag head and verifies the number, restoring the cursor
// on mismatch.
func expectTag(d *Decoder, want uint64) error {
	start := d.pos

	t, err := d.ReadTag()
	if err != nil {
		return err
	}
	if t != want {
		d.pos = start

		return decodeErrf(start, ErrTypeMismatch, "expected tag %d, found tag %d", want, t)
	}

	return nil
}
