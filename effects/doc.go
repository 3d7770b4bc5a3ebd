/*
Package effects implements the master effects chain: a state-variable filter,
a feedback delay and a reverb, always processed in that order.

Parameters are *trancebox.Param cells. The control goroutine stores new
values at any time; the audio goroutine reads them at the start of every
block and glides towards them with linear ramps, so changes never step. Turning
a node off ramps its wet contribution to zero; the node keeps running so that
turning it back on continues from a live state.
*/
package effects
