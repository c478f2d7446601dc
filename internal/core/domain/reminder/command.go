package reminder

import "strings"

// Command is what the local part of a target address asks for.
type Command interface {
	Accept(visitor CommandVisitor) error
}

type CommandVisitor interface {
	VisitTimeExpression(cmd *TimeExpressionCommand) error
	VisitDigest(cmd *DigestCommand) error
	VisitSearch(cmd *SearchCommand) error
	VisitSetDefault(cmd *SetDefaultCommand) error
	VisitIgnore(cmd *IgnoreCommand) error
}

type TimeExpressionCommand struct {
	Expression string
}

func (cmd *TimeExpressionCommand) Accept(v CommandVisitor) error {
	return v.VisitTimeExpression(cmd)
}

type DigestCommand struct{}

func (cmd *DigestCommand) Accept(v CommandVisitor) error {
	return v.VisitDigest(cmd)
}

type SearchCommand struct{}

func (cmd *SearchCommand) Accept(v CommandVisitor) error {
	return v.VisitSearch(cmd)
}

type SetDefaultCommand struct{}

func (cmd *SetDefaultCommand) Accept(v CommandVisitor) error {
	return v.VisitSetDefault(cmd)
}

type IgnoreCommand struct {
	LocalPart string
}

func (cmd *IgnoreCommand) Accept(v CommandVisitor) error {
	return v.VisitIgnore(cmd)
}

// ParseCommand maps a local part onto a command. Anything that is neither a
// known command nor an ignored local part is treated as a time expression.
func ParseCommand(localPart string, ignored []string) Command {
	localPart = strings.ToLower(strings.TrimSpace(localPart))
	for _, ignoredLocalPart := range ignored {
		if localPart == strings.ToLower(ignoredLocalPart) {
			return &IgnoreCommand{LocalPart: localPart}
		}
	}
	switch localPart {
	case "":
		return &IgnoreCommand{LocalPart: localPart}
	case "upcoming":
		return &DigestCommand{}
	case "check", "search":
		return &SearchCommand{}
	case "set":
		return &SetDefaultCommand{}
	}
	return &TimeExpressionCommand{Expression: localPart}
}

// IsDefaultAlias reports whether the expression stands for the owner's default.
func IsDefaultAlias(expression string) bool {
	return expression == "default" || expression == "remind"
}
