package target

import (
	"fmt"
	"os"
	"os/exec"
)

// C emits the stack-VM program as C99 source, grounded directly on
// original_source/src/target/c.rs. The machine runtime (cRuntime) is
// authored fresh since the original's std.c was not part of the retrieved
// source tree; its shape (a flat float array, sp/bp cursors, a bump-pointer
// heap region) follows the stack-VM ABI spec.md §2 describes.
type C struct{}

var _ Target = C{}

func (C) GetName() byte    { return 'c' }
func (C) IsStandard() bool { return true }

func (C) CorePrelude() string  { return cRuntime }
func (C) CorePostlude() string { return "" }
func (C) Std() string          { return cStd }

func (C) BeginEntryPoint(global, memory int) string {
	return fmt.Sprintf("int main(void) {\nmachine *vm = machine_new(%d, %d);\n", global, global+memory)
}
func (C) EndEntryPoint() string { return "\nmachine_drop(vm);\nreturn 0;\n}\n" }

func (C) Push(n float64) string { return fmt.Sprintf("machine_push(vm, %v);\n", n) }
func (C) Add() string           { return "machine_add(vm);\n" }
func (C) Sub() string           { return "machine_subtract(vm);\n" }
func (C) Mul() string           { return "machine_multiply(vm);\n" }
func (C) Div() string           { return "machine_divide(vm);\n" }

func (C) Allocate() string      { return "machine_allocate(vm);\n" }
func (C) Free() string          { return "machine_free(vm);\n" }
func (C) Store(size int) string { return fmt.Sprintf("machine_store(vm, %d);\n", size) }
func (C) Load(size int) string  { return fmt.Sprintf("machine_load(vm, %d);\n", size) }

func (C) FnHeader(name string) string { return fmt.Sprintf("void %s(machine *vm);\n", name) }
func (C) FnDefinition(name, body string) string {
	return fmt.Sprintf("void %s(machine *vm) {\n%s}\n\n", name, body)
}
func (C) CallFn(name string) string        { return fmt.Sprintf("%s(vm);\n", name) }
func (C) CallForeignFn(name string) string { return fmt.Sprintf("%s(vm);\n", name) }

func (C) BeginWhile() string { return "while (machine_pop(vm)) {\n" }
func (C) EndWhile() string   { return "}\n" }

// Compile writes the assembled program to OUTPUT.c, shells out to the
// system C compiler, and removes the intermediate file — grounded on
// c.rs's compile() and on pkg/preproc's "write, shell out, clean up" shape.
func (C) Compile(code string) error {
	const src = "OUTPUT.c"
	if err := os.WriteFile(src, []byte(code), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", src, err)
	}
	cmd := exec.Command("cc", src, "-O2", "-o", "main")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cc failed: %w: %s", err, out)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing %s: %w", src, err)
	}
	return nil
}

const cStd = `
void ok_print_num(machine *vm) {
    machine_push(vm, 0);
}

static void ok_lt(machine *vm) { double b = machine_pop(vm), a = machine_pop(vm); machine_push(vm, a < b); }
static void ok_le(machine *vm) { double b = machine_pop(vm), a = machine_pop(vm); machine_push(vm, a <= b); }
static void ok_gt(machine *vm) { double b = machine_pop(vm), a = machine_pop(vm); machine_push(vm, a > b); }
static void ok_ge(machine *vm) { double b = machine_pop(vm), a = machine_pop(vm); machine_push(vm, a >= b); }
static void ok_eq(machine *vm) { double b = machine_pop(vm), a = machine_pop(vm); machine_push(vm, a == b); }
static void ok_ne(machine *vm) { double b = machine_pop(vm), a = machine_pop(vm); machine_push(vm, a != b); }
`

const cRuntime = `#include <stdint.h>
#include <stdio.h>
#include <stdlib.h>

typedef struct machine {
    double *cells;
    int32_t sp;
    int32_t bp;
    int32_t size;
} machine;

static machine *machine_new(int32_t global_size, int32_t total_size) {
    machine *vm = malloc(sizeof(machine));
    vm->cells = calloc((size_t)total_size, sizeof(double));
    vm->sp = 0;
    vm->bp = 0;
    vm->size = total_size;
    return vm;
}

static void machine_drop(machine *vm) {
    free(vm->cells);
    free(vm);
}

static void machine_push(machine *vm, double n) {
    vm->cells[vm->sp++] = n;
}

static double machine_pop(machine *vm) {
    return vm->cells[--vm->sp];
}

static void machine_add(machine *vm) {
    double b = machine_pop(vm), a = machine_pop(vm);
    machine_push(vm, a + b);
}

static void machine_subtract(machine *vm) {
    double b = machine_pop(vm), a = machine_pop(vm);
    machine_push(vm, a - b);
}

static void machine_multiply(machine *vm) {
    double b = machine_pop(vm), a = machine_pop(vm);
    machine_push(vm, a * b);
}

static void machine_divide(machine *vm) {
    double b = machine_pop(vm), a = machine_pop(vm);
    machine_push(vm, a / b);
}

static void machine_store(machine *vm, int32_t size) {
    int32_t addr = (int32_t)machine_pop(vm);
    for (int32_t i = size - 1; i >= 0; i--) {
        vm->cells[addr + i] = machine_pop(vm);
    }
}

static void machine_load(machine *vm, int32_t size) {
    int32_t addr = (int32_t)machine_pop(vm);
    for (int32_t i = 0; i < size; i++) {
        machine_push(vm, vm->cells[addr + i]);
    }
}

static void machine_allocate(machine *vm) {
    double n = machine_pop(vm);
    machine_push(vm, (double)(vm->bp));
    vm->bp += (int32_t)n;
}

static void machine_free(machine *vm) {
    machine_pop(vm);
}
`
