// Package faults defines the typed failure kinds shared by every omvdecoder
// component.
//
// Components tag their errors with one of the exported sentinels through Wrap
// so the driver can classify a failure with errors.Is, print a readable
// message, and pick a deterministic exit status with ExitCode. Child process
// exit failures carry the exact exit code through ExitError.
package faults
