package cmd

import (
	"fmt"
	"sort"
	"strings"
)

// flagTakesValue lists every flag confere defines and whether it needs a value.
var flagTakesValue = map[string]bool{
	"json":         false,
	"help":         false,
	"config":       true,
	"store":        true,
	"status":       true,
	"limit":        true,
	"query":        true,
	"min":          true,
	"window":       true,
	"months":       true,
	"qty":          true,
	"price":        true,
	"name":         true,
	"image":        true,
	"daily-budget": true,
	"addr":         true,
}

var globalFlags = []string{"json", "config", "help"}

// commandFlags holds the local flags of each command path. Typo and alias
// rewrites only ever produce a flag the command actually has.
var commandFlags = map[string][]string{
	"history":             {"store", "status", "limit"},
	"browse":              {"store", "status", "limit"},
	"stores":              {},
	"compare":             {},
	"alert":               {"store"},
	"prices":              {"query", "limit"},
	"export":              {},
	"serve":               {"addr"},
	"favorites":           {"min", "window"},
	"favorites toggle":    {},
	"favorites evolution": {"months"},
	"cart new":            {"daily-budget"},
	"cart add":            {"qty", "image"},
	"cart edit":           {"name", "price", "qty", "image"},
	"cart rm":             {},
	"cart delete":         {},
	"cart show":           {},
	"cart list":           {"store", "limit"},
	"photo add":           {},
	"photo rm":            {},
	"budget set":          {},
	"budget show":         {},
	"budget check":        {},
	"list suggest":        {},
	"backup export":       {},
	"backup restore":      {},
}

var knownCommands = []string{
	"cart",
	"compare",
	"photo",
	"history",
	"stores",
	"favorites",
	"prices",
	"budget",
	"alert",
	"list",
	"backup",
	"export",
	"browse",
	"serve",
	"completion",
	"help",
}

var subcommands = map[string][]string{
	"cart":      {"new", "add", "edit", "rm", "delete", "show", "list"},
	"photo":     {"add", "rm"},
	"favorites": {"toggle", "evolution"},
	"budget":    {"set", "show", "check"},
	"list":      {"suggest"},
	"backup":    {"export", "restore"},
}

// flagAliases maps words shoppers reach for, in English and Portuguese, to
// flag names.
var flagAliases = map[string]string{
	"supermarket":  "store",
	"supermercado": "store",
	"market":       "store",
	"mercado":      "store",
	"loja":         "store",
	"quantity":     "qty",
	"quantidade":   "qty",
	"qtd":          "qty",
	"preco":        "price",
	"valor":        "price",
	"nome":         "name",
	"photo":        "image",
	"foto":         "image",
	"imagem":       "image",
	"max":          "limit",
	"top":          "limit",
	"limite":       "limit",
	"search":       "query",
	"busca":        "query",
	"pesquisa":     "query",
	"filter":       "status",
	"estado":       "status",
	"meses":        "months",
	"janela":       "window",
	"minimo":       "min",
	"daily":        "daily-budget",
	"budget":       "daily-budget",
	"orcamento":    "daily-budget",
	"address":      "addr",
	"listen":       "addr",
	"port":         "addr",
	"cfg":          "config",
}

// allFlags is the scope used before a command is known.
func allFlags() []string {
	names := make([]string, 0, len(flagTakesValue))
	for name := range flagTakesValue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// flagsFor returns the flags valid for a command path.
func flagsFor(path string) []string {
	local, ok := commandFlags[path]
	if !ok {
		return allFlags()
	}
	return append(append([]string{}, globalFlags...), local...)
}

func normalizeCLIArgs(args []string) ([]string, []string) {
	out := make([]string, 0, len(args))
	notes := make([]string, 0, 2)
	commandChosen := false
	commandPath := ""
	subcommandPending := false
	nestedCommandAllowed := false
	nestedCommandChosen := false
	allowBareFlagRewrite := true
	expectingValue := false
	afterDoubleDash := false

	for i, tok := range args {
		if afterDoubleDash {
			out = append(out, tok)
			continue
		}

		if expectingValue {
			out = append(out, tok)
			expectingValue = false
			continue
		}

		if tok == "--" {
			out = append(out, tok)
			afterDoubleDash = true
			continue
		}

		if subcommandPending && !strings.HasPrefix(tok, "-") {
			subcommandPending = false
			if sub, note, ok := resolveSubcommand(commandPath, tok); ok {
				if note != "" {
					notes = append(notes, note)
				}
				out = append(out, sub)
				commandPath += " " + sub
				continue
			}
		}

		canBeCommand := !commandChosen || (nestedCommandAllowed && !nestedCommandChosen)
		normalized, note, isFlag, needsValue, isCommand := normalizeToken(tok, flagsFor(commandPath), canBeCommand, allowBareFlagRewrite)
		if note != "" {
			notes = append(notes, note)
		}
		out = append(out, normalized)

		if isCommand {
			if !commandChosen {
				commandChosen = true
				commandPath = normalized
				_, subcommandPending = subcommands[commandPath]
				allowBareFlagRewrite = bareFlagRewriteAllowed(commandPath)
				nestedCommandAllowed = allowsNestedCommandArg(commandPath)
				continue
			}
			if nestedCommandAllowed && !nestedCommandChosen {
				nestedCommandChosen = true
			}
		}
		if isFlag && needsValue && !strings.Contains(normalized, "=") && i < len(args)-1 {
			expectingValue = true
		}
	}

	return out, notes
}

func rewriteNote(from, to string) string {
	return fmt.Sprintf("interpreted `%s` as `%s`; use `%s` next time.", from, to, to)
}

func normalizeToken(tok string, scope []string, canBeCommand, allowBareFlagRewrite bool) (normalized, note string, isFlag, needsValue, isCommand bool) {
	if tok == "--" {
		return tok, "", false, false, false
	}

	if strings.HasPrefix(tok, "--") {
		flagName, rest := splitFlag(strings.TrimPrefix(tok, "--"))
		canonical, ok := resolveFlagName(flagName, scope)
		if ok {
			newTok := "--" + canonical + rest
			if newTok != tok {
				return newTok, rewriteNote(tok, newTok), true, flagTakesValue[canonical], false
			}
			return newTok, "", true, flagTakesValue[canonical], false
		}
		return tok, "", true, false, false
	}

	if strings.HasPrefix(tok, "-") && len(tok) > 2 {
		flagName, rest := splitFlag(strings.TrimPrefix(tok, "-"))
		canonical, ok := resolveFlagName(flagName, scope)
		if ok {
			newTok := "--" + canonical + rest
			return newTok, rewriteNote(tok, newTok), true, flagTakesValue[canonical], false
		}
		return tok, "", true, false, false
	}

	if strings.Contains(tok, "=") && !strings.HasPrefix(tok, "-") {
		flagName, rest := splitFlag(tok)
		canonical, ok := resolveFlagName(flagName, scope)
		if ok {
			newTok := "--" + canonical + rest
			return newTok, rewriteNote(tok, newTok), true, flagTakesValue[canonical], false
		}
	}

	if canBeCommand && !strings.HasPrefix(tok, "-") {
		if corrected, ok := resolveCommand(tok); ok {
			if corrected != tok {
				return corrected, fmt.Sprintf("interpreted command `%s` as `%s`; use `%s` next time.", tok, corrected, corrected), false, false, true
			}
			return tok, "", false, false, true
		}
	}

	if allowBareFlagRewrite && !strings.HasPrefix(tok, "-") {
		canonical, ok := resolveFlagName(tok, scope)
		if ok {
			newTok := "--" + canonical
			return newTok, rewriteNote(tok, newTok), true, flagTakesValue[canonical], false
		}
	}

	return tok, "", false, false, false
}

func bareFlagRewriteAllowed(command string) bool {
	// Flag-only commands take no positional arguments, so a bare `json` or
	// `store` can only mean the flag.
	switch command {
	case "history", "stores", "browse", "serve":
		return true
	default:
		return false
	}
}

func allowsNestedCommandArg(command string) bool {
	// These commands accept another command token as a positional argument.
	switch command {
	case "help", "completion":
		return true
	default:
		return false
	}
}

// resolveFlagName maps raw to a flag in scope: exact name, alias, then the
// closest name within two edits.
func resolveFlagName(raw string, scope []string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, "_", "-")

	inScope := func(flag string) bool {
		for _, f := range scope {
			if f == flag {
				return true
			}
		}
		return false
	}
	if inScope(name) {
		return name, true
	}
	if canonical, ok := flagAliases[name]; ok && inScope(canonical) {
		return canonical, true
	}
	if suggestion, ok := closestMatch(name, scope, 2); ok {
		return suggestion, true
	}
	return "", false
}

func resolveCommand(raw string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for _, cmd := range knownCommands {
		if name == cmd {
			return cmd, true
		}
	}
	if suggestion, ok := closestMatch(name, knownCommands, 2); ok {
		return suggestion, true
	}
	return "", false
}

// resolveSubcommand matches tok against the subcommands of group. Typos are
// corrected only within one edit, since the token may be a cart id or name.
func resolveSubcommand(group, tok string) (sub, note string, ok bool) {
	name := strings.ToLower(tok)
	for _, candidate := range subcommands[group] {
		if name == candidate {
			return candidate, "", true
		}
	}
	if suggestion, ok := closestMatch(name, subcommands[group], 1); ok {
		return suggestion, fmt.Sprintf("interpreted command `%s %s` as `%s %s`; use `%s %s` next time.",
			group, tok, group, suggestion, group, suggestion), true
	}
	return "", "", false
}

func explainCLIError(err error) string {
	return formatCLIErrorText(classifyCLIError(err))
}

func splitFlag(value string) (string, string) {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) == 2 {
		return parts[0], "=" + parts[1]
	}
	return value, ""
}

func extractUnknownValue(msg, marker string) string {
	idx := strings.Index(msg, marker)
	if idx == -1 {
		return ""
	}

	remaining := strings.TrimSpace(msg[idx+len(marker):])
	remaining = strings.TrimPrefix(remaining, ":")
	remaining = strings.TrimSpace(remaining)

	if strings.HasPrefix(remaining, "\"") {
		remaining = strings.TrimPrefix(remaining, "\"")
		end := strings.Index(remaining, "\"")
		if end >= 0 {
			return remaining[:end]
		}
	}

	if strings.HasPrefix(remaining, "`") {
		remaining = strings.TrimPrefix(remaining, "`")
		end := strings.Index(remaining, "`")
		if end >= 0 {
			return remaining[:end]
		}
	}

	if fields := strings.Fields(remaining); len(fields) > 0 {
		return strings.Trim(fields[0], "\"`")
	}
	return ""
}

func closestMatch(target string, candidates []string, maxDistance int) (string, bool) {
	best := ""
	bestDist := maxDistance + 1

	for _, candidate := range candidates {
		d := levenshtein(target, candidate)
		if d < bestDist {
			bestDist = d
			best = candidate
		}
	}

	if bestDist <= maxDistance {
		return best, true
	}
	return "", false
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = minInt(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(vals ...int) int {
	best := vals[0]
	for _, v := range vals[1:] {
		if v < best {
			best = v
		}
	}
	return best
}
