package target

import (
	"fmt"
	"os"
)

// Rb emits the stack-VM program as Ruby source, grounded on
// original_source/src/target/rb.rs. Ruby has no separate build step, so
// Compile only writes the output file (matching rb.rs's compile(), which
// never shells out to a toolchain).
type Rb struct{}

var _ Target = Rb{}

func (Rb) GetName() byte    { return 'r' }
func (Rb) IsStandard() bool { return false }

func (Rb) CorePrelude() string  { return rbRuntime }
func (Rb) CorePostlude() string { return "" }
func (Rb) Std() string          { return rbStd }

func (Rb) BeginEntryPoint(global, memory int) string {
	return fmt.Sprintf("begin\nvm = machine_new(%d, %d)\n", global, global+memory)
}
func (Rb) EndEntryPoint() string { return "\nmachine_drop(vm)\nend\n" }

func (Rb) Push(n float64) string { return fmt.Sprintf("machine_push(vm, %v)\n", n) }
func (Rb) Add() string           { return "machine_add(vm)\n" }
func (Rb) Sub() string           { return "machine_subtract(vm)\n" }
func (Rb) Mul() string           { return "machine_multiply(vm)\n" }
func (Rb) Div() string           { return "machine_divide(vm)\n" }

func (Rb) Allocate() string      { return "machine_allocate(vm)\n" }
func (Rb) Free() string          { return "machine_free(vm)\n" }
func (Rb) Store(size int) string { return fmt.Sprintf("machine_store(vm, %d)\n", size) }
func (Rb) Load(size int) string  { return fmt.Sprintf("machine_load(vm, %d)\n", size) }

func (Rb) FnHeader(name string) string { return "" }
func (Rb) FnDefinition(name, body string) string {
	return fmt.Sprintf("def %s(vm)\n%s\nend\n", name, body)
}
func (Rb) CallFn(name string) string        { return fmt.Sprintf("%s(vm)\n", name) }
func (Rb) CallForeignFn(name string) string { return fmt.Sprintf("%s(vm)\n", name) }

func (Rb) BeginWhile() string { return "while machine_pop(vm) != 0\n" }
func (Rb) EndWhile() string   { return "end\n" }

func (Rb) Compile(code string) error {
	if err := os.WriteFile("main.rb", []byte(code), 0o644); err != nil {
		return fmt.Errorf("writing main.rb: %w", err)
	}
	return nil
}

const rbStd = `
def ok_print_num(vm)
  machine_push(vm, 0)
end

def ok_lt(vm) b, a = machine_pop(vm), machine_pop(vm); machine_push(vm, (a < b) ? 1.0 : 0.0) end
def ok_le(vm) b, a = machine_pop(vm), machine_pop(vm); machine_push(vm, (a <= b) ? 1.0 : 0.0) end
def ok_gt(vm) b, a = machine_pop(vm), machine_pop(vm); machine_push(vm, (a > b) ? 1.0 : 0.0) end
def ok_ge(vm) b, a = machine_pop(vm), machine_pop(vm); machine_push(vm, (a >= b) ? 1.0 : 0.0) end
def ok_eq(vm) b, a = machine_pop(vm), machine_pop(vm); machine_push(vm, (a == b) ? 1.0 : 0.0) end
def ok_ne(vm) b, a = machine_pop(vm), machine_pop(vm); machine_push(vm, (a != b) ? 1.0 : 0.0) end
`

const rbRuntime = `class Machine
  def initialize(global_size, total_size)
    @cells = Array.new(total_size, 0.0)
    @sp = 0
    @bp = global_size
  end

  def push(n) @cells[@sp] = n; @sp += 1 end
  def pop() @sp -= 1; @cells[@sp] end

  def add() b, a = pop, pop; push(a + b) end
  def subtract() b, a = pop, pop; push(a - b) end
  def multiply() b, a = pop, pop; push(a * b) end
  def divide() b, a = pop, pop; push(a / b) end

  def store(size)
    addr = pop.to_i
    (size - 1).downto(0) { |i| @cells[addr + i] = pop }
  end

  def load(size)
    addr = pop.to_i
    size.times { |i| push(@cells[addr + i]) }
  end

  def allocate()
    n = pop.to_i
    push(@bp.to_f)
    @bp += n
  end

  def free() pop end
end

def machine_new(global_size, total_size) Machine.new(global_size, total_size) end
def machine_drop(vm) end
def machine_push(vm, n) vm.push(n) end
def machine_pop(vm) vm.pop end
def machine_add(vm) vm.add end
def machine_subtract(vm) vm.subtract end
def machine_multiply(vm) vm.multiply end
def machine_divide(vm) vm.divide end
def machine_store(vm, size) vm.store(size) end
def machine_load(vm, size) vm.load(size) end
def machine_allocate(vm) vm.allocate end
def machine_free(vm) vm.free end
`
