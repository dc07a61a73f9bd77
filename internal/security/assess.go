package security

import (
	"fmt"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// CommandAssessment is advisory: it decides whether the front end shows a risk
// warning before asking for confirmation. It never rejects a command.
type CommandAssessment struct {
	RequiresRiskConfirmation bool
	RiskLevel                string
	RiskReason               string
	Parsed                   bool
}

var suspiciousPatterns = []struct {
	reason    string
	riskLevel string
	regex     *regexp.Regexp
}{
	{reason: "recursive delete", riskLevel: "high", regex: regexp.MustCompile(`(?i)\brm\s+-[a-z]*r[a-z]*f|\brm\s+-[a-z]*f[a-z]*r`)},
	{reason: "filesystem format", riskLevel: "high", regex: regexp.MustCompile(`(?i)\bmkfs(\.[a-z0-9]+)?\b`)},
	{reason: "raw disk write", riskLevel: "high", regex: regexp.MustCompile(`(?i)\bdd\s+if=`)},
	{reason: "pipe-to-shell pattern", riskLevel: "high", regex: regexp.MustCompile(`(?i)\|\s*(sh|bash|zsh)(\s|$)`)},
	{reason: "privilege escalation", riskLevel: "medium", regex: regexp.MustCompile(`(?i)\bsudo\b`)},
	{reason: "shutdown or reboot command", riskLevel: "medium", regex: regexp.MustCompile(`(?i)\b(shutdown|reboot|halt|poweroff)\b`)},
	{reason: "git hard reset", riskLevel: "medium", regex: regexp.MustCompile(`(?i)\bgit\s+reset\s+--hard\b`)},
	{reason: "dangerous chmod", riskLevel: "medium", regex: regexp.MustCompile(`(?i)\bchmod\s+(-R\s+)?777\b`)},
}

func AssessCommand(command string) (CommandAssessment, error) {
	normalizedCommand := strings.TrimSpace(command)
	if normalizedCommand == "" {
		return CommandAssessment{}, fmt.Errorf("empty command")
	}

	assessment := CommandAssessment{RiskLevel: "low"}
	for _, suspiciousPattern := range suspiciousPatterns {
		if suspiciousPattern.regex.MatchString(normalizedCommand) {
			assessment.RequiresRiskConfirmation = true
			assessment.RiskLevel = maxRiskLevel(assessment.RiskLevel, suspiciousPattern.riskLevel)
			if assessment.RiskReason == "" {
				assessment.RiskReason = suspiciousPattern.reason
			}
		}
	}

	astRiskReason, astRiskLevel, parsed := detectASTRisk(normalizedCommand)
	assessment.Parsed = parsed
	if astRiskReason != "" {
		assessment.RequiresRiskConfirmation = true
		assessment.RiskLevel = maxRiskLevel(assessment.RiskLevel, astRiskLevel)
		if assessment.RiskReason == "" {
			assessment.RiskReason = astRiskReason
		}
	}
	if !parsed && assessment.RiskReason == "" {
		assessment.RequiresRiskConfirmation = true
		assessment.RiskLevel = maxRiskLevel(assessment.RiskLevel, "medium")
		assessment.RiskReason = "command is not valid shell syntax"
	}

	return assessment, nil
}

func detectASTRisk(command string) (string, string, bool) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	file, parseError := parser.Parse(strings.NewReader(command), "")
	if parseError != nil {
		return "", "", false
	}

	riskReason := ""
	riskLevel := "low"
	syntax.Walk(file, func(node syntax.Node) bool {
		switch typedNode := node.(type) {
		case *syntax.Redirect:
			target := ""
			if typedNode.Word != nil {
				target = typedNode.Word.Lit()
			}
			if !writesToFile(typedNode.Op) || target == "/dev/null" {
				return true
			}
			if strings.HasPrefix(target, "/dev/") {
				riskReason = "redirection to a device file"
				riskLevel = maxRiskLevel(riskLevel, "high")
				return true
			}
			if riskReason == "" {
				riskReason = "shell redirection writes to a file"
			}
			riskLevel = maxRiskLevel(riskLevel, "medium")
		case *syntax.CmdSubst:
			if riskReason == "" {
				riskReason = "command substitution detected"
			}
			riskLevel = maxRiskLevel(riskLevel, "medium")
		case *syntax.Subshell:
			if riskReason == "" {
				riskReason = "subshell command detected"
			}
			riskLevel = maxRiskLevel(riskLevel, "medium")
		case *syntax.BinaryCmd:
			if typedNode.Op == syntax.Pipe || typedNode.Op == syntax.PipeAll {
				if riskReason == "" {
					riskReason = "pipeline command detected"
				}
				riskLevel = maxRiskLevel(riskLevel, "medium")
			}
		}
		return true
	})

	return riskReason, riskLevel, true
}

func writesToFile(operator syntax.RedirOperator) bool {
	switch operator {
	case syntax.RdrOut, syntax.AppOut, syntax.ClbOut, syntax.RdrAll, syntax.AppAll:
		return true
	default:
		return false
	}
}

func maxRiskLevel(left string, right string) string {
	if riskLevelRank(right) > riskLevelRank(left) {
		return right
	}
	return left
}

func riskLevelRank(value string) int {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high":
		return 3
	case "medium":
		return 2
	default:
		return 1
	}
}
