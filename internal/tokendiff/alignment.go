package tokendiff

import "github.com/pmezard/go-difflib/difflib"

const (
	opcodeEqualTagConstant   = 'e'
	opcodeReplaceTagConstant = 'r'
	opcodeDeleteTagConstant  = 'd'
	opcodeInsertTagConstant  = 'i'
)

// OperationKind classifies an aligned token edit.
type OperationKind string

// Operation kinds produced by Align.
const (
	OperationEqual   OperationKind = "equal"
	OperationReplace OperationKind = "replace"
	OperationDelete  OperationKind = "delete"
	OperationInsert  OperationKind = "insert"
)

// Operation is one aligned edit. Pairwise replacements carry exactly one old
// and one new token; an opaque replacement carries the whole unequal runs.
// OldIndex and NewIndex locate the first token of each run.
type Operation struct {
	Kind      OperationKind
	OldTokens []string
	NewTokens []string
	OldIndex  int
	NewIndex  int
}

// Opaque reports whether the operation replaces a run of different length.
func (operation Operation) Opaque() bool {
	return operation.Kind == OperationReplace && len(operation.OldTokens) != len(operation.NewTokens)
}

// Align computes the edit script turning oldTokens into newTokens using
// longest-matching-block opcodes.
func Align(oldTokens []string, newTokens []string) []Operation {
	matcher := difflib.NewMatcher(oldTokens, newTokens)

	var operations []Operation
	for _, opcode := range matcher.GetOpCodes() {
		oldRun := oldTokens[opcode.I1:opcode.I2]
		newRun := newTokens[opcode.J1:opcode.J2]

		switch opcode.Tag {
		case opcodeEqualTagConstant:
			for offset, token := range oldRun {
				operations = append(operations, Operation{
					Kind:      OperationEqual,
					OldTokens: []string{token},
					NewTokens: []string{token},
					OldIndex:  opcode.I1 + offset,
					NewIndex:  opcode.J1 + offset,
				})
			}
		case opcodeReplaceTagConstant:
			if len(oldRun) != len(newRun) {
				operations = append(operations, Operation{
					Kind:      OperationReplace,
					OldTokens: append([]string{}, oldRun...),
					NewTokens: append([]string{}, newRun...),
					OldIndex:  opcode.I1,
					NewIndex:  opcode.J1,
				})
				continue
			}
			for offset := range oldRun {
				operations = append(operations, Operation{
					Kind:      OperationReplace,
					OldTokens: []string{oldRun[offset]},
					NewTokens: []string{newRun[offset]},
					OldIndex:  opcode.I1 + offset,
					NewIndex:  opcode.J1 + offset,
				})
			}
		case opcodeDeleteTagConstant:
			for offset, token := range oldRun {
				operations = append(operations, Operation{
					Kind:      OperationDelete,
					OldTokens: []string{token},
					OldIndex:  opcode.I1 + offset,
					NewIndex:  opcode.J1,
				})
			}
		case opcodeInsertTagConstant:
			for offset, token := range newRun {
				operations = append(operations, Operation{
					Kind:      OperationInsert,
					NewTokens: []string{token},
					OldIndex:  opcode.I1,
					NewIndex:  opcode.J1 + offset,
				})
			}
		}
	}

	return operations
}
