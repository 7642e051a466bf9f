// Package schema describes logical wire types.
//
// An Aggregate is a named struct, enum or union with an ordered member list,
// a default byte order and a layout mode. Members carry a logical Type and
// optional per-field directives: a byte order override and, for strings, a
// text directive {encoding, units, pad}.
//
// Aggregates can be written four ways, all producing the same model:
//
//   - Builder: NewStruct, NewEnum and NewUnion with fluent members
//   - Struct tags: FromGoType reads `wire` and `text` tags
//   - Documents: YAML or JSONC files via ReadFile and Document.Resolve
//   - WIT: FromWIT imports record, variant, enum and tuple definitions
//
// Each path validates once. Layout and discriminant rules are enforced when
// the aggregate is compiled by the transcoder package.
package schema
