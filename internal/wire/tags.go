// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// tags.go — the one-byte tag vocabulary that precedes every encoded value,
// plus the footer layout constants shared by the decoder and the test
// encoder.

// Package wire holds the low-level wire vocabulary and the positioned byte
// source the decoder reads from.
package wire

import "strconv"

// Tag discriminates the encoding of the value that follows it.
type Tag int8

const (
	TagDelegated     Tag = -2 // payload handled by the fallback codec
	TagHandle        Tag = -1 // back-reference to an already decoded value
	TagNull          Tag = 0
	TagByte          Tag = 1
	TagShort         Tag = 2
	TagInt           Tag = 3
	TagLong          Tag = 4
	TagFloat         Tag = 5
	TagDouble        Tag = 6
	TagChar          Tag = 7
	TagBoolean       Tag = 8
	TagByteArr       Tag = 9
	TagShortArr      Tag = 10
	TagIntArr        Tag = 11
	TagLongArr       Tag = 12
	TagFloatArr      Tag = 13
	TagDoubleArr     Tag = 14
	TagCharArr       Tag = 15
	TagBooleanArr    Tag = 16
	TagObjectArr     Tag = 17
	TagString        Tag = 18
	TagUUID          Tag = 19
	TagProperties    Tag = 20
	TagArrayList     Tag = 21
	TagHashMap       Tag = 22
	TagHashSet       Tag = 23
	TagLinkedList    Tag = 24
	TagLinkedHashMap Tag = 25
	TagLinkedHashSet Tag = 26
	TagDate          Tag = 27
	TagClass         Tag = 28

	TagEnum           Tag = 100
	TagExternalizable Tag = 101
	TagSerializable   Tag = 102
	TagMarshalAware   Tag = 103
)

var tagNames = map[Tag]string{
	TagDelegated:      "delegated",
	TagHandle:         "handle",
	TagNull:           "null",
	TagByte:           "byte",
	TagShort:          "short",
	TagInt:            "int",
	TagLong:           "long",
	TagFloat:          "float",
	TagDouble:         "double",
	TagChar:           "char",
	TagBoolean:        "boolean",
	TagByteArr:        "byte[]",
	TagShortArr:       "short[]",
	TagIntArr:         "int[]",
	TagLongArr:        "long[]",
	TagFloatArr:       "float[]",
	TagDoubleArr:      "double[]",
	TagCharArr:        "char[]",
	TagBooleanArr:     "boolean[]",
	TagObjectArr:      "object[]",
	TagString:         "string",
	TagUUID:           "uuid",
	TagProperties:     "properties",
	TagArrayList:      "array-list",
	TagHashMap:        "hash-map",
	TagHashSet:        "hash-set",
	TagLinkedList:     "linked-list",
	TagLinkedHashMap:  "linked-hash-map",
	TagLinkedHashSet:  "linked-hash-set",
	TagDate:           "date",
	TagClass:          "class",
	TagEnum:           "enum",
	TagExternalizable: "externalizable",
	TagSerializable:   "serializable",
	TagMarshalAware:   "marshal-aware",
}

// String returns a short human-readable tag name.
func (t Tag) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return "tag(" + strconv.Itoa(int(t)) + ")"
}

// Described reports whether t introduces an object resolved through a
// class descriptor.
func (t Tag) Described() bool {
	switch t {
	case TagEnum, TagExternalizable, TagSerializable, TagMarshalAware:
		return true
	}
	return false
}

// FooterEligible reports whether records carrying t may end with a footer.
func (t Tag) FooterEligible() bool {
	return t == TagSerializable || t == TagMarshalAware
}

// Footer layout.
const (
	// EmptyFooter in the trailing length slot means the record has no footer.
	EmptyFooter int16 = -1

	// FooterLenSize is the width of the footer length field, which appears
	// both at the start of the footer and as the last two record bytes.
	FooterLenSize = 2

	// VariableLength marks a footer field whose length is stored inline.
	VariableLength int32 = -1

	FooterBodyLenMask    int32 = 0x3FFFFFFF
	FooterHandleBit            = 30
	FooterIsHandleMask   int32 = 1 << FooterHandleBit
	FooterHandlePairSize       = 8

	// HeaderFixedSize is tag + type id + class checksum, excluding any
	// inline class name.
	HeaderFixedSize = 1 + 4 + 2
)
