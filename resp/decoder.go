// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resp

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
	nanVal = math.NaN()
)

// type bytes, named the way protocol/predis/decoder.go names its prefix
// constants, extended with the RESP3 set sioresp's __init__.py dispatches
// on (string_start, error_start, ... in the original).
const (
	byteSimpleString    = '+'
	byteSimpleError     = '-'
	byteInteger         = ':'
	byteBulkString      = '$'
	byteArray           = '*'
	byteNull            = '_'
	byteDouble          = ','
	byteBoolean         = '#'
	byteBigNumber       = '('
	byteBlobError       = '!'
	byteVerbatimString  = '='
	byteMap             = '%'
	byteSet             = '~'
	byteAttribute       = '|'
	bytePush            = '>'
)

func isRESP3Only(k Kind) bool {
	switch k {
	case KindNull, KindDouble, KindBoolean, KindBigNumber, KindBlobError,
		KindVerbatimString, KindMap, KindSet, KindAttribute, KindPush:
		return true
	default:
		return false
	}
}

func kindForStartByte(c byte) (Kind, bool) {
	switch c {
	case byteSimpleString:
		return KindSimpleString, true
	case byteSimpleError:
		return KindSimpleError, true
	case byteInteger:
		return KindInteger, true
	case byteBulkString:
		return KindBulkString, true
	case byteArray:
		return KindArray, true
	case byteNull:
		return KindNull, true
	case byteDouble:
		return KindDouble, true
	case byteBoolean:
		return KindBoolean, true
	case byteBigNumber:
		return KindBigNumber, true
	case byteBlobError:
		return KindBlobError, true
	case byteVerbatimString:
		return KindVerbatimString, true
	case byteMap:
		return KindMap, true
	case byteSet:
		return KindSet, true
	case byteAttribute:
		return KindAttribute, true
	case bytePush:
		return KindPush, true
	default:
		return 0, false
	}
}

// event is one flat entry in the Decoder's event queue. A leaf event
// (SimpleString, Integer, ...) carries its finished Value. An aggregate
// event carries only the header: Kind and declared Length, exactly the
// "register" protocol/predis/decoder.go pushes onto its stack — except
// here the queue is flat and ordered, not a recursion stack, per the
// event-stream strategy in SPEC_FULL.md §4.3.3.
type event struct {
	kind   Kind
	length int // declared length; -1 means null aggregate
	leaf   Value
}

// pendingBody remembers an in-flight length-prefixed payload (BulkString,
// BlobError, VerbatimString) across Feed calls, the same role
// ParserState.read_bulk_string_body plays in the reference sioresp
// implementation.
type pendingBody struct {
	kind Kind
	n    int
}

// Metrics are optional prometheus hooks a host may wire into a Decoder.
// They default to nil, in which case Decoder does not touch prometheus at
// all — ambient instrumentation per SPEC_FULL.md §10.5, never a required
// dependency of the core's control flow.
type Metrics struct {
	FramesDecoded  prometheus.Counter
	ProtocolErrors prometheus.Counter
}

func (m *Metrics) incFrames() {
	if m != nil && m.FramesDecoded != nil {
		m.FramesDecoded.Inc()
	}
}

func (m *Metrics) incErrors() {
	if m != nil && m.ProtocolErrors != nil {
		m.ProtocolErrors.Inc()
	}
}

// Decoder is the incremental RESP state machine described in SPEC_FULL.md
// §4.3. It owns a Buffer and is itself owned by a single caller; see
// SPEC_FULL.md §5 for the concurrency model (none).
type Decoder struct {
	ID uuid.UUID // log/metric correlation only; the core never inspects it

	opt     Options
	optErr  error
	metrics *Metrics

	buf     *Buffer
	pending *pendingBody

	events []event
	backup []event

	consumed int64 // cumulative bytes consumed from buf across this stream's lifetime
}

// NewDecoder returns a Decoder configured by opt. A zero Options is not
// valid; use DefaultOptions or set RespVersion explicitly. An invalid opt
// (e.g. an out-of-range RespVersion) is accepted here rather than rejected
// with an error return, so the usual resp.NewDecoder(opt).WithMetrics(m)
// call-site chain keeps working; the validation failure instead surfaces
// from the first Feed call, before any byte is consumed.
func NewDecoder(opt Options) *Decoder {
	return &Decoder{
		ID:     uuid.New(),
		opt:    opt,
		optErr: opt.Validate(),
		buf:    NewBuffer(),
	}
}

// WithMetrics attaches optional prometheus counters and returns the same
// Decoder, for call-site chaining: resp.NewDecoder(opt).WithMetrics(m).
func (d *Decoder) WithMetrics(m *Metrics) *Decoder {
	d.metrics = m
	return d
}

// Reset discards buffered bytes and any partial value, returning the
// Decoder to its just-constructed state (P4: idempotent reset).
func (d *Decoder) Reset() {
	d.buf.Clear()
	d.pending = nil
	d.events = d.events[:0]
	d.backup = d.backup[:0]
	d.consumed = 0
}

// Feed appends data to the internal Buffer and eagerly decodes every
// complete leaf frame and aggregate header currently available into the
// event queue. It returns a *ProtocolError the instant an invalid frame is
// detected; per SPEC_FULL.md §7, no further bytes are consumed once that
// happens and the Decoder must be Reset before further use.
func (d *Decoder) Feed(data []byte) error {
	if d.optErr != nil {
		return d.optErr
	}
	d.buf.Append(data)

	for {
		if d.pending != nil {
			ok, err := d.continuePendingBody()
			if err != nil {
				d.metrics.incErrors()
				return err
			}
			if !ok {
				return nil
			}
			continue
		}

		c, ok := d.buf.PeekFirstByte()
		if !ok {
			return nil
		}

		kind, ok := kindForStartByte(c)
		if !ok {
			err := newProtocolError(d.consumed, "invalid start byte %q", c)
			d.metrics.incErrors()
			return err
		}
		if d.opt.RespVersion == 2 && isRESP3Only(kind) {
			err := newProtocolError(d.consumed, "RESP3 type byte %q not allowed under RespVersion=2", c)
			d.metrics.incErrors()
			return err
		}

		more, err := d.readOneFrame(kind)
		if err != nil {
			d.metrics.incErrors()
			return err
		}
		if !more {
			return nil
		}
	}
}

// readOneFrame attempts to read exactly one frame (leaf or aggregate
// header) starting at the buffer head. ok is false if not enough bytes are
// buffered yet. For line frames and aggregate headers the buffer is then
// left untouched; for a length-prefixed frame whose length line is complete
// but whose body is not, the length line is consumed and remembered in
// d.pending, so the next Feed resumes at the body.
func (d *Decoder) readOneFrame(kind Kind) (ok bool, err error) {
	switch kind {
	case KindSimpleString, KindSimpleError, KindInteger, KindDouble, KindBigNumber, KindNull, KindBoolean:
		return d.readLineFrame(kind)
	case KindBulkString, KindBlobError, KindVerbatimString:
		return d.readLengthPrefixedFrame(kind)
	case KindArray, KindMap, KindSet, KindAttribute, KindPush:
		return d.readAggregateHeader(kind)
	default:
		return false, newProtocolError(d.consumed, "unhandled kind %s", kind)
	}
}

func (d *Decoder) readLineFrame(kind Kind) (bool, error) {
	line, ok := d.buf.ReadLine()
	if !ok {
		return false, nil
	}
	// +1 for the type byte, +2 for the CRLF ReadLine already stripped
	body := line[1:]
	d.consumed += int64(len(line)) + 2

	leaf, err := buildLeaf(kind, body)
	if err != nil {
		return false, err
	}
	d.events = append(d.events, event{kind: kind, leaf: leaf})
	d.metrics.incFrames()
	return true, nil
}

func buildLeaf(kind Kind, body []byte) (Value, error) {
	switch kind {
	case KindSimpleString:
		return Value{Kind: KindSimpleString, Bytes: cloneBytes(body)}, nil
	case KindSimpleError:
		return Value{Kind: KindSimpleError, Bytes: cloneBytes(body)}, nil
	case KindInteger:
		n, err := strconv.ParseInt(string(body), 10, 64)
		if err != nil {
			return Value{}, newProtocolError(0, "malformed Integer payload %q", body)
		}
		return Value{Kind: KindInteger, Int: n}, nil
	case KindDouble:
		f, err := parseDouble(body)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindDouble, Double: f}, nil
	case KindBigNumber:
		n, ok := new(big.Int).SetString(string(body), 10)
		if !ok {
			return Value{}, newProtocolError(0, "malformed BigNumber payload %q", body)
		}
		return Value{Kind: KindBigNumber, Big: n}, nil
	case KindNull:
		if len(body) != 0 {
			return Value{}, newProtocolError(0, "Null frame must not carry a payload, got %q", body)
		}
		return Value{Kind: KindNull}, nil
	case KindBoolean:
		switch string(body) {
		case "t":
			return Value{Kind: KindBoolean, Bool: true}, nil
		case "f":
			return Value{Kind: KindBoolean, Bool: false}, nil
		default:
			return Value{}, newProtocolError(0, "Boolean payload must be 't' or 'f', got %q", body)
		}
	default:
		return Value{}, newProtocolError(0, "buildLeaf: unhandled kind %s", kind)
	}
}

func parseDouble(body []byte) (float64, error) {
	s := strings.ToLower(string(body))
	switch s {
	case "inf", "+inf":
		return posInf, nil
	case "-inf":
		return negInf, nil
	case "nan":
		return nanVal, nil
	}
	f, err := strconv.ParseFloat(string(body), 64)
	if err != nil {
		return 0, newProtocolError(0, "malformed Double payload %q", body)
	}
	return f, nil
}

func (d *Decoder) readLengthPrefixedFrame(kind Kind) (bool, error) {
	if d.pending == nil {
		line, ok := d.buf.ReadLine()
		if !ok {
			return false, nil
		}
		n, err := strconv.Atoi(string(line[1:]))
		if err != nil {
			return false, newProtocolError(d.consumed, "malformed length prefix %q", line[1:])
		}
		d.consumed += int64(len(line)) + 2

		if n < 0 {
			if kind != KindBulkString {
				return false, newProtocolError(d.consumed, "%s does not admit a negative length", kind)
			}
			d.events = append(d.events, event{kind: kind, leaf: NullBulkString()})
			d.metrics.incFrames()
			return true, nil
		}
		d.pending = &pendingBody{kind: kind, n: n}
	}
	return d.continuePendingBody()
}

func (d *Decoder) continuePendingBody() (bool, error) {
	p := d.pending
	body, ok := d.buf.Read(p.n + 2)
	if !ok {
		return false, nil
	}
	payload, trailer := body[:p.n], body[p.n:]
	if string(trailer) != "\r\n" {
		return false, newProtocolError(d.consumed, "%s payload missing CRLF trailer", p.kind)
	}
	d.consumed += int64(len(body))

	leaf, err := buildBodyLeaf(p.kind, payload)
	if err != nil {
		return false, err
	}
	d.events = append(d.events, event{kind: p.kind, leaf: leaf})
	d.pending = nil
	d.metrics.incFrames()
	return true, nil
}

func buildBodyLeaf(kind Kind, payload []byte) (Value, error) {
	switch kind {
	case KindBulkString:
		return Value{Kind: KindBulkString, Bytes: cloneBytes(payload)}, nil
	case KindBlobError:
		return Value{Kind: KindBlobError, Bytes: cloneBytes(payload)}, nil
	case KindVerbatimString:
		if len(payload) < 4 || payload[3] != ':' {
			return Value{}, newProtocolError(0, "VerbatimString payload must be ttt:data, got %q", payload)
		}
		return Value{
			Kind:        KindVerbatimString,
			VerbatimTag: string(payload[:3]),
			Bytes:       cloneBytes(payload[4:]),
		}, nil
	default:
		return Value{}, newProtocolError(0, "buildBodyLeaf: unhandled kind %s", kind)
	}
}

func (d *Decoder) readAggregateHeader(kind Kind) (bool, error) {
	line, ok := d.buf.ReadLine()
	if !ok {
		return false, nil
	}
	n, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return false, newProtocolError(d.consumed, "malformed length prefix %q", line[1:])
	}
	d.consumed += int64(len(line)) + 2

	if n < 0 && kind != KindArray && kind != KindPush {
		return false, newProtocolError(d.consumed, "%s does not admit a negative length", kind)
	}

	length := n
	if n >= 0 && (kind == KindMap || kind == KindAttribute) {
		length = n * 2
	}
	d.events = append(d.events, event{kind: kind, length: length})
	d.metrics.incFrames()
	return true, nil
}

// errInsufficient is a sentinel used internally by nextElement to signal
// "not enough events queued yet"; it never escapes NextValue.
var errInsufficient = newProtocolError(-1, "insufficient data")

// NextValue attempts to assemble and return one fully-decoded Value from
// the event queue built up by Feed. ok is false if the queue does not yet
// hold enough leaves to complete the next value (Insufficient per
// SPEC_FULL.md §6); the Decoder is left ready to accept more bytes and a
// later call will retry, per I3/I4.
func (d *Decoder) NextValue() (v Value, ok bool, err error) {
	d.backup = d.backup[:0]

	val, perr := d.nextElement()
	if perr == errInsufficient {
		// restore the queue to its pre-call order: the backup holds
		// exactly the events popped during this attempt, in the
		// order they were popped, which is also the order they must
		// be restored in front of whatever remains.
		d.events = append(append(make([]event, 0, len(d.backup)+len(d.events)), d.backup...), d.events...)
		d.backup = d.backup[:0]
		return Value{}, false, nil
	}
	if perr != nil {
		return Value{}, false, perr
	}
	d.backup = d.backup[:0]
	return val, true, nil
}

func (d *Decoder) nextElement() (Value, error) {
	if len(d.events) == 0 {
		return Value{}, errInsufficient
	}
	ev := d.events[0]
	d.events = d.events[1:]
	d.backup = append(d.backup, ev)

	if !ev.kind.isAggregate() {
		return ev.leaf, nil
	}
	return d.nextAggregate(ev)
}

func (d *Decoder) nextAggregate(ev event) (Value, error) {
	switch ev.kind {
	case KindArray, KindPush:
		if ev.length < 0 {
			return Value{Kind: ev.kind, Null: true}, nil
		}
		items := make([]Value, 0, ev.length)
		for i := 0; i < ev.length; i++ {
			item, err := d.nextElement()
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Value{Kind: ev.kind, Items: items}, nil

	case KindSet:
		items := make([]Value, 0, ev.length)
		for i := 0; i < ev.length; i++ {
			item, err := d.nextElement()
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Value{Kind: KindSet, Items: items}, nil

	case KindMap, KindAttribute:
		pairs := make([]Pair, 0, ev.length/2)
		for i := 0; i < ev.length; i += 2 {
			k, err := d.nextElement()
			if err != nil {
				return Value{}, err
			}
			v, err := d.nextElement()
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, Pair{Key: k, Value: v})
		}
		if ev.kind == KindMap && d.opt.DictForMap {
			dict := make(map[string]Value, len(pairs))
			for _, p := range pairs {
				k, err := p.Key.Text(d.opt)
				if err != nil {
					return Value{}, newProtocolError(d.consumed, "Map key not hashable under dict_for_map: %s", err)
				}
				dict[k] = p.Value
			}
			return Value{Kind: KindMap, Dict: dict}, nil
		}
		return Value{Kind: ev.kind, Pairs: pairs}, nil

	default:
		return Value{}, newProtocolError(0, "nextAggregate: unhandled kind %s", ev.kind)
	}
}
