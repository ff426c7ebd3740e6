package parser

var KEYWORDS = map[string]TokenType{
	"fn":        FN,
	"let":       LET,
	"if":        IF,
	"else":      ELSE,
	"while":     WHILE,
	"for":       FOR,
	"in":        IN,
	"break":     BREAK,
	"continue":  CONTINUE,
	"return":    RETURN,
	"contract":  CONTRACT,
	"library":   LIBRARY,
	"interface": INTERFACE,
	"require":   REQUIRE,
	"use":       USE,
	"struct":    STRUCT,
	"writes":    WRITES,
	"reads":     READS,
	"ext":       EXT,
	"mut":       MUT,
}
