package ir

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion is bumped whenever the wire shape of SerializableSystem
// changes incompatibly. DeserializeReader rejects blobs stamped with a newer version
// than it understands.
const FormatVersion = 1

// SubsystemBlob is one `{ id, version, payload_bytes }` entry of the IR file
// (spec.md §6). The payload is itself a msgpack-encoded System.
type SubsystemBlob struct {
	Id      string `msgpack:"id"`
	Version int    `msgpack:"version"`
	Payload []byte `msgpack:"payload"`
}

// SerializableSystem is the top-level shape of the IR file: an array of
// subsystem blobs plus the two global InterceptionMaps and the trusted
// document set.
type SerializableSystem struct {
	FormatVersion int             `msgpack:"format_version"`
	Subsystems    []SubsystemBlob `msgpack:"subsystems"`

	QueryInterceptionMap    InterceptionMap `msgpack:"query_interceptions"`
	MutationInterceptionMap InterceptionMap `msgpack:"mutation_interceptions"`

	TrustedDocuments TrustedDocuments `msgpack:"trusted_documents"`
}

// DeserializeReader reads and decodes a SerializableSystem from r.
func DeserializeReader(r io.Reader) (*SerializableSystem, error) {
	dec := msgpack.NewDecoder(r)
	var s SerializableSystem
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("ir: decode system: %w", err)
	}
	if s.FormatVersion > FormatVersion {
		return nil, fmt.Errorf("ir: unsupported format version %d (this build understands up to %d)", s.FormatVersion, FormatVersion)
	}
	return &s, nil
}

// Serialize encodes a SerializableSystem, the inverse of DeserializeReader.
// Used by tests and by tooling that assembles an IR file in-process.
func Serialize(s *SerializableSystem) ([]byte, error) {
	return msgpack.Marshal(s)
}

// LoadSubsystem decodes the payload of a single subsystem blob into a
// System. The whole payload is decoded when this is called.
func LoadSubsystem(blob SubsystemBlob) (*System, error) {
	var sys System
	if err := msgpack.Unmarshal(blob.Payload, &sys); err != nil {
		return nil, fmt.Errorf("ir: decode subsystem %q: %w", blob.Id, err)
	}
	return &sys, nil
}

// FindSubsystem returns the blob with the given id, or false.
func (s *SerializableSystem) FindSubsystem(id string) (SubsystemBlob, bool) {
	for _, b := range s.Subsystems {
		if b.Id == id {
			return b, true
		}
	}
	return SubsystemBlob{}, false
}
