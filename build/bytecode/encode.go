// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bytecode

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/quill-lang/quill/build/source"
	"github.com/quill-lang/quill/interp/value"
	"golang.org/x/mod/semver"
)

// FormatVersion is the version of the binary format written by Encode.
// Decode reads files with the same major version and an older or equal version.
const FormatVersion = "v1.0.0"

var magic = []byte("QBC\x00")

// Constant tags in the binary format.
const (
	tagInt byte = iota
	tagFloat
	tagBool
	tagString
	tagFunc
)

type encoder struct {
	w   *bufio.Writer
	buf [binary.MaxVarintLen64]byte
}

func (e *encoder) uvarint(x uint64) {
	n := binary.PutUvarint(e.buf[:], x)
	e.w.Write(e.buf[:n])
}

func (e *encoder) varint(x int64) {
	n := binary.PutVarint(e.buf[:], x)
	e.w.Write(e.buf[:n])
}

func (e *encoder) str(s string) {
	e.uvarint(uint64(len(s)))
	e.w.WriteString(s)
}

func (e *encoder) pos(p source.Pos) {
	e.uvarint(uint64(p.Offset))
	e.uvarint(uint64(p.Line))
	e.uvarint(uint64(p.Col))
}

func (e *encoder) constant(val value.Value) error {
	switch v := val.(type) {
	case value.Int:
		e.w.WriteByte(tagInt)
		e.varint(int64(v))
	case value.Float:
		e.w.WriteByte(tagFloat)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(float64(v)))
		e.w.Write(b[:])
	case value.Bool:
		e.w.WriteByte(tagBool)
		if v {
			e.w.WriteByte(1)
		} else {
			e.w.WriteByte(0)
		}
	case value.Str:
		e.w.WriteByte(tagString)
		e.str(string(v))
	case value.Func:
		e.w.WriteByte(tagFunc)
		e.str(v.Name)
		e.uvarint(uint64(v.Index))
	default:
		return errors.Errorf("cannot encode constant %s of kind %s", val, val.Kind())
	}
	return nil
}

// Encode writes a program in the quill binary format.
func Encode(w io.Writer, prog *Program) error {
	e := &encoder{w: bufio.NewWriter(w)}
	e.w.Write(magic)
	e.str(FormatVersion)
	e.uvarint(uint64(len(prog.Consts)))
	for _, val := range prog.Consts {
		if err := e.constant(val); err != nil {
			return err
		}
	}
	e.uvarint(uint64(len(prog.Funcs)))
	for _, fn := range prog.Funcs {
		e.str(fn.Name)
		e.uvarint(uint64(fn.NumParams))
		e.uvarint(uint64(fn.NumLocals))
		e.uvarint(uint64(len(fn.Code)))
		var b [3]byte
		for _, in := range fn.Code {
			b[0] = byte(in.Op)
			binary.LittleEndian.PutUint16(b[1:], in.Arg)
			e.w.Write(b[:])
		}
		e.uvarint(uint64(len(fn.Spans)))
		for _, span := range fn.Spans {
			e.pos(span.Start)
			e.pos(span.End)
		}
	}
	e.uvarint(uint64(prog.Entry))
	return errors.WithStack(e.w.Flush())
}

type decoder struct {
	r   *bufio.Reader
	err error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	x, err := binary.ReadUvarint(d.r)
	d.fail(err)
	return x
}

// length reads a length and checks it is not larger than what is left to read.
func (d *decoder) length(max int) int {
	n := d.uvarint()
	if n > uint64(max) {
		d.fail(errors.Errorf("invalid length %d", n))
		return 0
	}
	return int(n)
}

func (d *decoder) varint() int64 {
	if d.err != nil {
		return 0
	}
	x, err := binary.ReadVarint(d.r)
	d.fail(err)
	return x
}

func (d *decoder) readBytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	b := make([]byte, n)
	_, err := io.ReadFull(d.r, b)
	d.fail(err)
	return b
}

func (d *decoder) readByte() byte {
	b := d.readBytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) str() string {
	return string(d.readBytes(d.length(maxItems)))
}

func (d *decoder) pos() source.Pos {
	return source.Pos{
		Offset: int(d.uvarint()),
		Line:   int(d.uvarint()),
		Col:    int(d.uvarint()),
	}
}

func (d *decoder) constant() value.Value {
	switch tag := d.readByte(); tag {
	case tagInt:
		return value.Int(d.varint())
	case tagFloat:
		b := d.readBytes(8)
		if b == nil {
			return nil
		}
		return value.Float(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	case tagBool:
		return value.Bool(d.readByte() != 0)
	case tagString:
		return value.Str(d.str())
	case tagFunc:
		name := d.str()
		return value.Func{Name: name, Index: int(d.uvarint())}
	default:
		d.fail(errors.Errorf("unknown constant tag %d", tag))
		return nil
	}
}

// CheckVersion returns an error if a file written with a given
// format version cannot be read by this package.
func CheckVersion(version string) error {
	if !semver.IsValid(version) {
		return errors.Errorf("invalid bytecode format version %q", version)
	}
	if semver.Major(version) != semver.Major(FormatVersion) {
		return errors.Errorf("bytecode format version %s incompatible with %s", version, FormatVersion)
	}
	if semver.Compare(version, FormatVersion) > 0 {
		return errors.Errorf("bytecode format version %s is newer than %s", version, FormatVersion)
	}
	return nil
}

// maxItems bounds the number of items in a decoded list.
const maxItems = 1 << 24

// Decode reads a program written by Encode.
func Decode(r io.Reader) (*Program, error) {
	d := &decoder{r: bufio.NewReader(r)}
	if header := d.readBytes(len(magic)); d.err != nil || !bytes.Equal(header, magic) {
		return nil, errors.Errorf("not a quill bytecode file")
	}
	version := d.str()
	if d.err != nil {
		return nil, errors.Wrap(d.err, "cannot read bytecode format version")
	}
	if err := CheckVersion(version); err != nil {
		return nil, err
	}
	prog := &Program{}
	numConsts := d.length(maxItems)
	for i := 0; i < numConsts && d.err == nil; i++ {
		prog.Consts = append(prog.Consts, d.constant())
	}
	numFuncs := d.length(maxItems)
	for i := 0; i < numFuncs && d.err == nil; i++ {
		fn := &Function{
			Name:      d.str(),
			NumParams: int(d.uvarint()),
			NumLocals: int(d.uvarint()),
		}
		numInstrs := d.length(maxItems)
		for j := 0; j < numInstrs && d.err == nil; j++ {
			b := d.readBytes(3)
			if b == nil {
				break
			}
			fn.Code = append(fn.Code, Instruction{Op: Opcode(b[0]), Arg: binary.LittleEndian.Uint16(b[1:])})
		}
		numSpans := d.length(maxItems)
		for j := 0; j < numSpans && d.err == nil; j++ {
			fn.Spans = append(fn.Spans, source.Span{Start: d.pos(), End: d.pos()})
		}
		prog.Funcs = append(prog.Funcs, fn)
	}
	prog.Entry = int(d.uvarint())
	if d.err != nil {
		return nil, errors.Wrap(d.err, "cannot decode bytecode")
	}
	if prog.Entry >= len(prog.Funcs) {
		return nil, errors.Errorf("entry function %d out of range", prog.Entry)
	}
	return prog, nil
}
