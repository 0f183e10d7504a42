package amf3

// AMF3 type markers
const (
	typeUNDEFINED     = 0x00
	typeNULL          = 0x01
	typeFALSE         = 0x02
	typeTRUE          = 0x03
	typeINTEGER       = 0x04
	typeDOUBLE        = 0x05
	typeSTRING        = 0x06
	typeXML_DOC       = 0x07
	typeDATE          = 0x08
	typeARRAY         = 0x09
	typeOBJECT        = 0x0a
	typeXML           = 0x0b
	typeBYTE_ARRAY    = 0x0c
	typeVECTOR_INT    = 0x0d
	typeVECTOR_UINT   = 0x0e
	typeVECTOR_DOUBLE = 0x0f
	typeVECTOR_OBJECT = 0x10
	typeDICTIONARY    = 0x11
)

const (
	maxU29 = 0x1fffffff

	// Integer marker range; anything outside goes out as a double
	minInt29 = -0x10000000
	maxInt29 = 0x0fffffff
)

// object header bits
const (
	flagInline         = 0x01
	flagInlineTraits   = 0x02
	flagExternalizable = 0x04
	flagDynamic        = 0x08

	// new instance, inline traits, not externalizable, dynamic, no sealed members
	anonymousObjectHeader = flagInline | flagInlineTraits | flagDynamic
)

const defaultMaxDepth = 10000
