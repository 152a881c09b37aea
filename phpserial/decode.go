package phpserial

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var ErrSyntax = errors.New("phpserial: syntax error")

// Decode parses one serialised value. Arrays decode to *Map, integers to
// int64 and floats to float64. Trailing bytes are an error.
func Decode(data []byte) (any, error) {
	d := &decoder{data: data}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, d.errorf("trailing data")
	}
	return v, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, d.pos, fmt.Sprintf(format, args...))
}

func (d *decoder) expect(b byte) error {
	if d.pos >= len(d.data) || d.data[d.pos] != b {
		return d.errorf("expected %q", b)
	}
	d.pos++
	return nil
}

// until returns the bytes up to the next b and moves past it.
func (d *decoder) until(b byte) (string, error) {
	i := bytes.IndexByte(d.data[d.pos:], b)
	if i < 0 {
		return "", d.errorf("missing %q", b)
	}
	s := string(d.data[d.pos : d.pos+i])
	d.pos += i + 1
	return s, nil
}

func (d *decoder) value() (any, error) {
	if d.pos+1 >= len(d.data) {
		return nil, d.errorf("unexpected end of input")
	}
	tag := d.data[d.pos]
	if tag == 'N' {
		d.pos++
		return nil, d.expect(';')
	}
	d.pos++
	if err := d.expect(':'); err != nil {
		return nil, err
	}
	switch tag {
	case 'b':
		s, err := d.until(';')
		if err != nil {
			return nil, err
		}
		switch s {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
		return nil, d.errorf("bad bool %q", s)
	case 'i':
		s, err := d.until(';')
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, d.errorf("bad int %q", s)
		}
		return n, nil
	case 'd':
		s, err := d.until(';')
		if err != nil {
			return nil, err
		}
		return parseFloat(d, s)
	case 's':
		return d.str()
	case 'a':
		return d.array()
	}
	return nil, d.errorf("unsupported tag %q", tag)
}

func parseFloat(d *decoder, s string) (float64, error) {
	switch s {
	case "NAN":
		return math.NaN(), nil
	case "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, d.errorf("bad float %q", s)
	}
	return f, nil
}

// str reads the part of a string after "s:".
func (d *decoder) str() (string, error) {
	ls, err := d.until(':')
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(ls)
	if err != nil || n < 0 {
		return "", d.errorf("bad string length %q", ls)
	}
	if err := d.expect('"'); err != nil {
		return "", err
	}
	if d.pos+n > len(d.data) {
		return "", d.errorf("string length %d exceeds input", n)
	}
	s := string(d.data[d.pos : d.pos+n])
	d.pos += n
	if err := d.expect('"'); err != nil {
		return "", err
	}
	return s, d.expect(';')
}

func (d *decoder) array() (*Map, error) {
	cs, err := d.until(':')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(cs)
	if err != nil || n < 0 {
		return nil, d.errorf("bad array count %q", cs)
	}
	if err := d.expect('{'); err != nil {
		return nil, err
	}
	m := NewMap()
	for i := 0; i < n; i++ {
		key, err := d.value()
		if err != nil {
			return nil, err
		}
		switch key.(type) {
		case int64, string:
		default:
			return nil, d.errorf("bad array key %T", key)
		}
		val, err := d.value()
		if err != nil {
			return nil, err
		}
		m.Set(key, val)
	}
	return m, d.expect('}')
}
