package maquibc

import (
	"fmt"
	"strconv"

	"go.maquibc.dev/pkg/vm"
)

// DefaultSymbolCapacity and DefaultCodeCapacity are the bounds used when a [Parser] is built with
// [NewParser], matching the source's own choices (100 symbols, a 200-instruction hint).
const (
	DefaultSymbolCapacity = 100
	DefaultCodeCapacity   = 200
)

// Parser is the single-pass recursive-descent front end: it recognizes the grammar, builds the
// flat symbol table, and emits bytecode with backpatched forward jumps, all in one walk of the
// token stream. There is no separate AST-building phase; [Node] trees are only built when
// BuildTree is set, purely for the optional -tree diagnostic dump.
type Parser struct {
	filename  string
	tokenizer Tokenizer

	cur      Token
	pushback *Token
	lexErr   error

	Symbols *SymbolTable
	Code    *vm.CodeVector
	Errors  []CompileError

	offset              int
	lastDefinedFunction string

	BuildTree bool
	tree      *Node
	treeStack []*Node
}

// Tree returns the syntax tree built during parsing, or nil if BuildTree was not set.
func (p *Parser) Tree() *Node {
	return p.tree
}

// pushNode opens a new syntax-tree node labeled label, nesting it under the current top of
// treeStack (or making it the root). It is a no-op unless BuildTree is set.
func (p *Parser) pushNode(label string) {
	if !p.BuildTree {
		return
	}

	n := NewNode(label)
	if len(p.treeStack) == 0 {
		p.tree = n
	} else {
		p.treeStack[len(p.treeStack)-1].AddChild(n)
	}
	p.treeStack = append(p.treeStack, n)
}

// popNode closes the syntax-tree node opened by the matching pushNode.
func (p *Parser) popNode() {
	if !p.BuildTree {
		return
	}
	p.treeStack = p.treeStack[:len(p.treeStack)-1]
}

// leafNode records a terminal (an identifier or literal consumed by the grammar) as a child of
// the current syntax-tree node.
func (p *Parser) leafNode(label string) {
	if !p.BuildTree || len(p.treeStack) == 0 {
		return
	}
	p.treeStack[len(p.treeStack)-1].AddChild(NewNode(label))
}

// NewParser returns a parser consuming tokenizer, with the default symbol table and code vector
// capacities.
func NewParser(tokenizer Tokenizer) *Parser {
	return NewParserWithCapacity(tokenizer, DefaultSymbolCapacity, DefaultCodeCapacity)
}

// NewParserWithCapacity returns a parser with explicitly configured capacities. A zero capacity
// selects the matching default.
func NewParserWithCapacity(tokenizer Tokenizer, symbolCapacity, codeCapacity int) *Parser {
	if symbolCapacity == 0 {
		symbolCapacity = DefaultSymbolCapacity
	}
	if codeCapacity == 0 {
		codeCapacity = DefaultCodeCapacity
	}

	p := &Parser{
		tokenizer: tokenizer,
		filename:  tokenizer.GetFilename(),
		Symbols:   NewSymbolTable(symbolCapacity),
		Code:      vm.NewCodeVector(codeCapacity),
	}

	// The program's first instruction is always an unconditional branch, patched to main's entry
	// once main's declaration is reached.
	p.Code.Emit(vm.BR, 0)

	// Prime cur with the first real token; the discarded zero Token has Typ == TokenEOF so it
	// never reaches any grammar rule.
	p.advance()

	return p
}

func (p *Parser) GetFilename() string {
	return p.filename
}

// Parse runs the parser to completion. The returned error is fatal (I/O or lexing failure);
// semantic and syntactic problems are instead collected into p.Errors.
func (p *Parser) Parse() error {
	p.program()
	return p.lexErr
}

func (p *Parser) atEnd() bool {
	return p.cur.Typ == TokenEOF || p.cur.Typ == TokenError
}

// advance consumes the current token and fetches the next one, returning the consumed token.
func (p *Parser) advance() Token {
	old := p.cur

	var next Token
	if p.pushback != nil {
		next = *p.pushback
		p.pushback = nil
	} else {
		next = p.tokenizer.Get()
	}

	if next.Typ == TokenError && p.lexErr == nil {
		p.lexErr = fmt.Errorf("maquibc: %s", next.Value)
	}

	p.cur = next
	return old
}

// peekAhead returns the token after the current one without consuming either, buffering it in
// the single pushback slot. It is used only to disambiguate assignment from a bare expression.
func (p *Parser) peekAhead() Token {
	if p.pushback == nil {
		t := p.tokenizer.Get()
		p.pushback = &t
	}

	return *p.pushback
}

// expect consumes the current token if it has type typ, reporting a syntax error and returning
// false otherwise. On a mismatch the offending token is left in place as the current token.
func (p *Parser) expect(typ TokenType, what string) bool {
	if p.cur.Typ != typ {
		p.errorf("expected %s, found %q", what, p.cur.Value)
		return false
	}

	p.advance()
	return true
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.Errors = append(p.Errors, newSyntaxError(p.cur.Line, format, args...))
}

func (p *Parser) addError(err CompileError) {
	p.Errors = append(p.Errors, err)
}

// program = { fun_decl } , main_decl ;
func (p *Parser) program() {
	p.pushNode("program")
	defer p.popNode()

	for p.cur.Typ == TokenFunction && p.lexErr == nil {
		p.funDecl()
	}

	if p.lexErr != nil {
		return
	}

	if p.cur.Typ != TokenID {
		p.errorf("expected a function declaration or the program's main declaration")
		return
	}

	name := p.mainDecl()

	if p.lexErr != nil {
		return
	}

	if !p.atEnd() {
		p.errorf("trailing input after main's closing brace")
	}

	if name != "main" {
		p.addError(&LastFunctionMustBeMainError{located{p.cur.Line}, name})
	}
}

// fun_decl = "function" , ID , "(" , param_list , ")" , fun_body ;
func (p *Parser) funDecl() {
	p.advance() // "function"

	nameTok := p.cur
	if !p.expect(TokenID, "a function name") {
		return
	}

	p.pushNode("fun_decl: " + nameTok.Value)
	defer p.popNode()

	p.declareFunction(nameTok)
	p.paramListAndBody(nameTok.Value, false)
}

// main_decl = ID="main" , "(" , param_list , ")" , fun_body ;
// The grammar does not require the literal spelling "main" here; that is a semantic check
// (spec.md §7, "last-must-be-main") so a program whose final declaration has some other name
// still parses, and is rejected afterward.
func (p *Parser) mainDecl() string {
	nameTok := p.cur
	if !p.expect(TokenID, "the program's main declaration") {
		return nameTok.Value
	}

	p.pushNode("main_decl: " + nameTok.Value)
	defer p.popNode()

	p.declareFunction(nameTok)
	p.paramListAndBody(nameTok.Value, true)

	return nameTok.Value
}

func (p *Parser) declareFunction(nameTok Token) {
	if _, ok := p.Symbols.LookupFunction(nameTok.Value); ok {
		p.addError(&FunctionRedefError{located{nameTok.Line}, nameTok.Value})
		return
	}

	_, err := p.Symbols.Insert(Symbol{
		Name:       nameTok.Value,
		Kind:       KindFunction,
		Address:    p.Code.Len(),
		ScopeOwner: nameTok.Value,
	})
	if err != nil {
		p.addError(&SymbolTableFullError{located{nameTok.Line}, p.Symbols.capacity})
	}
}

func (p *Parser) paramListAndBody(name string, isMain bool) {
	p.lastDefinedFunction = name
	p.offset = 2

	if !p.expect(TokenLParen, "'('") {
		return
	}

	arity := p.paramList(name)

	if !p.expect(TokenRParen, "')'") {
		return
	}

	if sym, ok := p.Symbols.LookupFunction(name); ok {
		sym.Arity = arity
	}

	if isMain {
		p.Code.Patch(0, int32(p.Code.Len()))
	}

	p.funBody(name)
}

// param_list = [ param_stat , { "," , param_stat } ] ;
// param_stat = "int" , ID ;
func (p *Parser) paramList(owner string) int {
	if p.cur.Typ == TokenRParen {
		return 0
	}

	count := 0
	for {
		if !p.paramStat(owner) {
			return count
		}
		count++

		if p.cur.Typ != TokenComma {
			break
		}
		p.advance()
	}

	return count
}

func (p *Parser) paramStat(owner string) bool {
	if !p.expect(TokenInt, "'int'") {
		return false
	}

	nameTok := p.cur
	if !p.expect(TokenID, "a parameter name") {
		return false
	}

	p.declareVariable(nameTok, owner)
	return true
}

func (p *Parser) declareVariable(nameTok Token, owner string) {
	if _, ok := p.Symbols.Lookup(nameTok.Value, owner); ok {
		p.addError(&VariableRedefError{located{nameTok.Line}, nameTok.Value, owner})
		return
	}

	_, err := p.Symbols.Insert(Symbol{
		Name:       nameTok.Value,
		Kind:       KindVariable,
		Address:    p.offset,
		ScopeOwner: owner,
	})
	if err != nil {
		p.addError(&SymbolTableFullError{located{nameTok.Line}, p.Symbols.capacity})
		return
	}

	p.offset++
}

// fun_body = "{" , { decl_stat } , { statement } , "}" ;
func (p *Parser) funBody(owner string) {
	if !p.expect(TokenLBrace, "'{'") {
		return
	}

	for p.cur.Typ == TokenInt {
		p.declStat(owner)
	}

	p.Code.Emit(vm.ENTER, int32(p.offset))

	for !p.atEnd() && p.cur.Typ != TokenRBrace {
		p.statement(owner)
	}

	p.Code.Emit(vm.RETURN, 0)

	p.expect(TokenRBrace, "'}'")
}

// decl_stat = "int" , ID , ";" ;
func (p *Parser) declStat(owner string) {
	p.advance() // "int"

	nameTok := p.cur
	if !p.expect(TokenID, "a variable name") {
		return
	}

	p.declareVariable(nameTok, owner)
	p.expect(TokenSemi, "';'")
}

// statement = if_stat | while_stat | for_stat | read_stat | write_stat
//           | compound_stat | call_stat | expr_stat ;
func (p *Parser) statement(owner string) {
	switch p.cur.Typ {
	case TokenIf:
		p.pushNode("if_stat")
		p.ifStat(owner)
		p.popNode()
	case TokenWhile:
		p.pushNode("while_stat")
		p.whileStat(owner)
		p.popNode()
	case TokenFor:
		p.pushNode("for_stat")
		p.forStat(owner)
		p.popNode()
	case TokenRead:
		p.pushNode("read_stat")
		p.readStat(owner)
		p.popNode()
	case TokenWrite:
		p.pushNode("write_stat")
		p.writeStat(owner)
		p.popNode()
	case TokenLBrace:
		p.pushNode("compound_stat")
		p.compoundStat(owner)
		p.popNode()
	case TokenCall:
		p.pushNode("call_stat")
		p.callStat(owner)
		p.popNode()
	default:
		p.pushNode("expr_stat")
		p.exprStat(owner)
		p.popNode()
	}
}

// if_stat = "if" , "(" , expr , ")" , statement , [ "else" , statement ] ;
func (p *Parser) ifStat(owner string) {
	p.advance() // "if"
	p.expect(TokenLParen, "'('")
	p.expr(owner)
	p.expect(TokenRParen, "')'")

	l1 := p.Code.Emit(vm.BRF, 0)
	p.statement(owner)

	l2 := p.Code.Emit(vm.BR, 0)
	p.Code.Patch(l1, int32(p.Code.Len()))

	if p.cur.Typ == TokenElse {
		p.advance()
		p.statement(owner)
	}

	p.Code.Patch(l2, int32(p.Code.Len()))
}

// while_stat = "while" , "(" , expr , ")" , statement ;
func (p *Parser) whileStat(owner string) {
	p.advance() // "while"

	head := p.Code.Len()
	p.expect(TokenLParen, "'('")
	p.expr(owner)
	p.expect(TokenRParen, "')'")

	lend := p.Code.Emit(vm.BRF, 0)
	p.statement(owner)
	p.Code.Emit(vm.BR, int32(head))
	p.Code.Patch(lend, int32(p.Code.Len()))
}

// for_stat = "for" , "(" , expr , ";" , expr , ";" , expr , ")" , statement ;
func (p *Parser) forStat(owner string) {
	p.advance() // "for"
	p.expect(TokenLParen, "'('")

	p.expr(owner) // E1, evaluated for side effect only (no STO unless an assignment)
	p.expect(TokenSemi, "';'")

	lcond := p.Code.Len()
	p.expr(owner) // E2
	lend := p.Code.Emit(vm.BRF, 0)
	lbodyJump := p.Code.Emit(vm.BR, 0)

	lstep := p.Code.Len()
	p.expect(TokenSemi, "';'")
	p.expr(owner) // E3
	p.Code.Emit(vm.BR, int32(lcond))

	lbody := p.Code.Len()
	p.Code.Patch(lbodyJump, int32(lbody))
	p.expect(TokenRParen, "')'")
	p.statement(owner)
	p.Code.Emit(vm.BR, int32(lstep))

	p.Code.Patch(lend, int32(p.Code.Len()))
}

// read_stat = "read" , ID , ";" ;
func (p *Parser) readStat(owner string) {
	p.advance() // "read"

	nameTok := p.cur
	if !p.expect(TokenID, "a variable name") {
		p.expect(TokenSemi, "';'")
		return
	}

	sym, ok := p.Symbols.Lookup(nameTok.Value, owner)
	if !ok {
		p.addError(&UndeclaredError{located{nameTok.Line}, nameTok.Value})
	} else if sym.Kind != KindVariable {
		p.addError(&ReadToNonVarError{located{nameTok.Line}, nameTok.Value})
	}

	p.Code.Emit(vm.IN, 0)
	if ok {
		p.Code.Emit(vm.STO, int32(sym.Address))
	}

	p.expect(TokenSemi, "';'")
}

// write_stat = "write" , expr , ";" ;
func (p *Parser) writeStat(owner string) {
	p.advance() // "write"
	p.expr(owner)
	p.Code.Emit(vm.OUT, 0)
	p.expect(TokenSemi, "';'")
}

// compound_stat = "{" , { statement } , "}" ;
func (p *Parser) compoundStat(owner string) {
	p.advance() // "{"
	for !p.atEnd() && p.cur.Typ != TokenRBrace {
		p.statement(owner)
	}
	p.expect(TokenRBrace, "'}'")
}

// call_stat = "call" , ID , "(" , [ var_list ] , ")" , ";" ;
// var_list  = ID , { "," , ID } ;
func (p *Parser) callStat(owner string) {
	p.advance() // "call"

	nameTok := p.cur
	if !p.expect(TokenID, "a function name") {
		return
	}

	p.expect(TokenLParen, "'('")

	var args []Token
	if p.cur.Typ == TokenID {
		for {
			args = append(args, p.cur)
			p.expect(TokenID, "an argument")

			if p.cur.Typ != TokenComma {
				break
			}
			p.advance()
		}
	}

	p.expect(TokenRParen, "')'")
	p.expect(TokenSemi, "';'")

	fn, ok := p.Symbols.LookupFunction(nameTok.Value)
	if !ok {
		if _, exists := p.Symbols.Lookup(nameTok.Value, owner); exists {
			p.addError(&CallNonFnError{located{nameTok.Line}, nameTok.Value})
		} else {
			p.addError(&UndeclaredError{located{nameTok.Line}, nameTok.Value})
		}
		return
	}

	for _, arg := range args {
		sym, exists := p.Symbols.Lookup(arg.Value, owner)
		if !exists {
			p.addError(&UndeclaredError{located{arg.Line}, arg.Value})
			continue
		}

		p.Code.Emit(vm.LOAD, int32(sym.Address))
	}

	if len(args) != fn.Arity {
		p.addError(&ArgCountMismatchError{located{nameTok.Line}, nameTok.Value, fn.Arity, len(args)})
	}

	for range args {
		p.Code.Emit(vm.PAS, 0)
	}

	p.Code.Emit(vm.CAL, int32(fn.Address))
}

// expr_stat = [ expr ] , ";" ;
func (p *Parser) exprStat(owner string) {
	if p.cur.Typ != TokenSemi {
		p.expr(owner)
	}
	p.expect(TokenSemi, "';'")
}

// expr = ( ID , "=" , bool_expr ) | bool_expr ;
func (p *Parser) expr(owner string) {
	if p.cur.Typ == TokenID {
		nameTok := p.cur
		if p.peekAhead().Typ == TokenAssign {
			p.advance() // consume identifier
			p.advance() // consume '='

			p.boolExpr(owner)

			sym, ok := p.Symbols.Lookup(nameTok.Value, owner)
			if !ok {
				p.addError(&UndeclaredError{located{nameTok.Line}, nameTok.Value})
				return
			}
			if sym.Kind != KindVariable {
				p.addError(&AssignToNonVarError{located{nameTok.Line}, nameTok.Value})
				return
			}

			p.Code.Emit(vm.STO, int32(sym.Address))
			return
		}
	}

	p.boolExpr(owner)
}

// bool_expr = add_expr , [ relop , add_expr ] ;
func (p *Parser) boolExpr(owner string) {
	p.addExpr(owner)

	op, isRel := relOpcode(p.cur.Typ)
	if !isRel {
		return
	}

	p.advance()
	p.addExpr(owner)
	p.Code.Emit(op, 0)
}

func relOpcode(t TokenType) (vm.Opcode, bool) {
	switch t {
	case TokenLT:
		return vm.LES, true
	case TokenGT:
		return vm.GT, true
	case TokenLE:
		return vm.LE, true
	case TokenGE:
		return vm.GE, true
	case TokenEQ:
		return vm.EQ, true
	case TokenNE:
		return vm.NOTEQ, true
	default:
		return 0, false
	}
}

// add_expr = term , { ("+" | "-") , term } ;
func (p *Parser) addExpr(owner string) {
	p.term(owner)

	for p.cur.Typ == TokenPlus || p.cur.Typ == TokenMinus {
		op := vm.ADD
		if p.cur.Typ == TokenMinus {
			op = vm.SUB
		}
		p.advance()
		p.term(owner)
		p.Code.Emit(op, 0)
	}
}

// term = factor , { ("*" | "/") , factor } ;
func (p *Parser) term(owner string) {
	p.factor(owner)

	for p.cur.Typ == TokenStar || p.cur.Typ == TokenSlash {
		op := vm.MULT
		if p.cur.Typ == TokenSlash {
			op = vm.DIV
		}
		p.advance()
		p.factor(owner)
		p.Code.Emit(op, 0)
	}
}

// factor = "(" , add_expr , ")" | ID | NUM ;
func (p *Parser) factor(owner string) {
	switch p.cur.Typ {
	case TokenLParen:
		p.advance()
		p.addExpr(owner)
		p.expect(TokenRParen, "')'")
	case TokenID:
		nameTok := p.cur
		p.advance()

		sym, ok := p.Symbols.Lookup(nameTok.Value, owner)
		if !ok {
			p.addError(&UndeclaredError{located{nameTok.Line}, nameTok.Value})
			return
		}
		if sym.Kind != KindVariable {
			p.addError(&FactorNotVarError{located{nameTok.Line}, nameTok.Value})
			return
		}

		p.Code.Emit(vm.LOAD, int32(sym.Address))
		p.leafNode("id: " + nameTok.Value)
	case TokenNum:
		numTok := p.cur
		p.advance()

		v, err := strconv.ParseInt(numTok.Value, 10, 32)
		if err != nil {
			p.errorf("malformed numeric literal %q", numTok.Value)
			return
		}

		p.Code.Emit(vm.LOADI, int32(v))
		p.leafNode("num: " + numTok.Value)
	default:
		p.errorf("expected an operand, found %q", p.cur.Value)
		p.advance()
	}
}
