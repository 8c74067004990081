// Command spectra records a short clip from the microphone, sends it to a
// song recognition service and prints the ranked matches.
//
// Running spectra with no subcommand is the same as "spectra listen".
// "spectra match <file>" identifies an existing recording, "spectra history"
// lists earlier results and "spectra config init" writes a sample config.
package main
