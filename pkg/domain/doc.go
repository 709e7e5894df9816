// Package domain contains the core entities shared by the probing engine, the
// result sink and the CLI: the domain under test, the outcome of probing it
// and the records written to the output files. The types are free of
// infrastructure concerns so every layer can depend on them.
package domain
