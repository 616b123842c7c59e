// ledgerctl tareas de operación del libro de stock: migraciones, catálogo inicial, auditoría y movimientos manuales.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
