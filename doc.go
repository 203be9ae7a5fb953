/*
Package basicdsp compiles and runs small per-sample audio programs.

Concept

A program describes what happens to a single stereo frame:

    % simple tremolo
    phase = mod1(phase + 4/samplerate)
    outl = inl * (0.5 + 0.5*sin1(phase))
    outr = inr * (0.5 + 0.5*sin1(phase))

Statements are separated by newlines or semicolons and % starts a comment.
Variables are created on first use and keep their values between frames.
The names in, inl, inr, out, outl, outr, slider1 to slider4 and samplerate
are bound by the virtual machine. Delay lines are declared with

    delay d[4410]

and read with d[k], which returns the value written k frames ago.

Pipeline

Source text is processed in three steps, each in its own package:

    syntax.Tokenize - source to tokens;
    syntax.Parse - tokens to a tree and a variable table;
    compiler.Compile - tree to a bytecode.Program.

Compile in this package runs all of them. Errors of every step carry the
source line, which is returned by Line.

Execution

The vm package executes a Program once per frame from the audio callback.
The control thread swaps programs and sets parameters while the callback
runs; the callback never blocks on it and emits silence instead.

    m := vm.New(portaudio.NewDevice(-1, -1), vm.WithSampleRate(44100))
    p, err := basicdsp.Compile(src)
    if err != nil {
        fmt.Println(basicdsp.Describe(err)) // line 3: unexpected "+"
        ...
    }
    m.LoadProgram(p)
    err = m.Start()
*/
package basicdsp
