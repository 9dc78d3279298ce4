package target

import (
	"fmt"
	"os"
	"os/exec"
)

// TS emits the stack-VM program as TypeScript source compiled down to JS
// via tsc, grounded on original_source/src/target/ts.rs. The original
// emits an async entry point and awaits every function call since its
// runtime models host I/O as Promises; this port keeps that shape even
// though the stack machine itself performs no asynchronous work, to stay
// faithful to the grounding source.
type TS struct{}

var _ Target = TS{}

func (TS) GetName() byte    { return 't' }
func (TS) IsStandard() bool { return true }

func (TS) CorePrelude() string  { return tsRuntime }
func (TS) CorePostlude() string { return "" }
func (TS) Std() string          { return tsStd }

func (TS) BeginEntryPoint(global, memory int) string {
	return fmt.Sprintf("async function okMain(): Promise<void> {\nlet vm = machineNew(%d, %d);\n", global, global+memory)
}
func (TS) EndEntryPoint() string { return "\nvm.drop();\n}\nokMain();\n" }

func (TS) Push(n float64) string { return fmt.Sprintf("vm.push(%v);\n", n) }
func (TS) Add() string           { return "vm.add();\n" }
func (TS) Sub() string           { return "vm.subtract();\n" }
func (TS) Mul() string           { return "vm.multiply();\n" }
func (TS) Div() string           { return "vm.divide();\n" }

func (TS) Allocate() string      { return "vm.allocate();\n" }
func (TS) Free() string          { return "vm.free();\n" }
func (TS) Store(size int) string { return fmt.Sprintf("vm.store(%d);\n", size) }
func (TS) Load(size int) string  { return fmt.Sprintf("vm.load(%d);\n", size) }

func (TS) FnHeader(name string) string { return "" }
func (TS) FnDefinition(name, body string) string {
	return fmt.Sprintf("async function %s(vm: Machine): Promise<void> {\n%s\n}\n", name, body)
}
func (TS) CallFn(name string) string        { return fmt.Sprintf("await %s(vm);\n", name) }
func (TS) CallForeignFn(name string) string { return fmt.Sprintf("await %s(vm);\n", name) }

func (TS) BeginWhile() string { return "while (vm.pop() !== 0) {\n" }
func (TS) EndWhile() string   { return "}\n" }

// Compile writes the assembled program to OUTPUT.ts and invokes tsc,
// mirroring ts.rs's compile().
func (TS) Compile(code string) error {
	const src = "OUTPUT.ts"
	if err := os.WriteFile(src, []byte(code), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", src, err)
	}
	cmd := exec.Command("tsc", src, "--outFile", "main.js", "--target", "ES2017")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tsc failed: %w: %s", err, out)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing %s: %w", src, err)
	}
	return nil
}

const tsStd = `
async function okPrintNum(vm: Machine): Promise<void> {
  vm.push(0);
}

async function ok_lt(vm: Machine): Promise<void> { const b = vm.pop(), a = vm.pop(); vm.push(a < b ? 1 : 0); }
async function ok_le(vm: Machine): Promise<void> { const b = vm.pop(), a = vm.pop(); vm.push(a <= b ? 1 : 0); }
async function ok_gt(vm: Machine): Promise<void> { const b = vm.pop(), a = vm.pop(); vm.push(a > b ? 1 : 0); }
async function ok_ge(vm: Machine): Promise<void> { const b = vm.pop(), a = vm.pop(); vm.push(a >= b ? 1 : 0); }
async function ok_eq(vm: Machine): Promise<void> { const b = vm.pop(), a = vm.pop(); vm.push(a === b ? 1 : 0); }
async function ok_ne(vm: Machine): Promise<void> { const b = vm.pop(), a = vm.pop(); vm.push(a !== b ? 1 : 0); }
`

const tsRuntime = `class Machine {
  cells: number[];
  sp: number;
  bp: number;

  constructor(globalSize: number, totalSize: number) {
    this.cells = new Array(totalSize).fill(0);
    this.sp = 0;
    this.bp = globalSize;
  }

  push(n: number): void { this.cells[this.sp++] = n; }
  pop(): number { return this.cells[--this.sp]; }

  add(): void { const b = this.pop(), a = this.pop(); this.push(a + b); }
  subtract(): void { const b = this.pop(), a = this.pop(); this.push(a - b); }
  multiply(): void { const b = this.pop(), a = this.pop(); this.push(a * b); }
  divide(): void { const b = this.pop(), a = this.pop(); this.push(a / b); }

  store(size: number): void {
    const addr = this.pop();
    for (let i = size - 1; i >= 0; i--) { this.cells[addr + i] = this.pop(); }
  }

  load(size: number): void {
    const addr = this.pop();
    for (let i = 0; i < size; i++) { this.push(this.cells[addr + i]); }
  }

  allocate(): void {
    const n = this.pop();
    this.push(this.bp);
    this.bp += n;
  }

  free(): void { this.pop(); }
  drop(): void {}
}

function machineNew(globalSize: number, totalSize: number): Machine {
  return new Machine(globalSize, totalSize);
}
`
