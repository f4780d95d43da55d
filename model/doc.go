// Package model provides the intermediate representation for document
// conversion: a [Document] of ordered [Page] values decoupled from the
// serialized PDF byte form.
//
// # Lifecycle
//
// A Document enters the system through [Decode] and leaves it through
// [Encode]:
//
//	doc, err := model.Decode(data)
//	if err != nil {
//	    var de *model.DecodeError
//	    ...
//	}
//	out, err := model.Encode(doc)
//
// Decoding rejects malformed structure (unusable cross-references,
// broken page trees, encrypted files) with a [*DecodeError] rather than
// returning a partial document.
//
// # Immutability
//
// Page operations never modify a Document in place; they derive new
// values through [Document.WithPages]. Round-tripping a derived
// document through Encode and Decode preserves structural equality as
// defined by [Equal]: page count, order, rotation, geometry and
// content bytes.
//
// # Identity
//
// [Document.ID] is the SHA-256 of the source bytes for decoded
// documents. Derived documents get a structural fingerprint instead,
// so two identical derivations share an identity.
package model
