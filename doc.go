/*
Package amf3 implements the Action Message Format 3 (AMF3) serialization format

Encode and Decode convert between Go values and AMF3 bytes. Strings, dates,
byte arrays, arrays and objects are deduplicated through per-call reference
tables, so shared and cyclic structures survive a round trip.

Externalizable objects and the XML, Vector and Dictionary types are not
supported and fail with ErrUnsupported.

The wire format is described in Adobe's "AMF 3" document.
*/
package amf3
