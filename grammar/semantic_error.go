package grammar

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return e.message
}

var (
	semErrNoProduction        = newSemanticError("a grammar needs at least one production")
	semErrInvalidProduction   = newSemanticError("a production must be written as `LHS -> RHS | RHS ...`")
	semErrDuplicateProduction = newSemanticError("duplicate production")
	semErrDuplicateLHS        = newSemanticError("productions of a non-terminal must be written in one line")
	semErrUnusedProduction    = newSemanticError("unused production")
	semErrMisplacedEpsilon    = newSemanticError("EPSILON must be the only symbol of an alternative")
	semErrNoFiller            = newSemanticError("a non-terminal needs a filler for recovery messages")
	semErrUndefinedSym        = newSemanticError("undefined symbol")
	semErrConflict            = newSemanticError("LL(1) conflict")
)
