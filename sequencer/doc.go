/*
Package sequencer ties the tracks, the voice pools and the effects graph
together and drives them from the audio output.

The audio context is the Player.Process callback; it never blocks and never
waits for the control context. The control context is the Engine: its methods
write parameter cells and transport commands that the Player picks up at the
start of its next render block. Everything the audio context wants to tell
the rest of the program goes through the Broker, with non-blocking sends.
*/
package sequencer
