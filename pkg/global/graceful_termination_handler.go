package global

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// InstallGracefulTerminationHandler installs signal handlers, so that
// this process gets notified when it is requested to shut down.
//
// This method returns a Context that the caller can use to detect that
// shutdown is initiated. It also returns an errgroup.Group that the
// caller can use to schedule tasks that must complete prior to shutting
// down, such as flushing pending writes to storage. Goroutines
// scheduled in this group must respect cancellation of the Context.
//
// The Context is also canceled if one of the tasks in the group fails.
// Once all tasks have completed after receiving a signal, the process
// terminates by raising the original signal once again.
func InstallGracefulTerminationHandler() (context.Context, *errgroup.Group) {
	signalContext, signalCancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(signalContext)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		receivedSignal := <-signalChan
		log.Printf("Received %s signal. Initiating graceful shutdown.", receivedSignal.String())

		// Inform other parts of the process about the impending
		// shutdown. Wait for cleanup/shutdown tasks to complete.
		signalCancel()
		if err := group.Wait(); err != nil {
			log.Print("Graceful shutdown failed: ", err)
		} else {
			log.Print("Graceful shutdown succeeded")
		}

		// Clear the signal handler and raise the original
		// signal once again. That way we shut down under the
		// original circumstances.
		signal.Reset(receivedSignal)
		process, err := os.FindProcess(os.Getpid())
		if err != nil {
			panic(err)
		}
		if err := process.Signal(receivedSignal); err != nil {
			panic(err)
		}
		panic("Raising the original signal didn't cause us to shut down")
	}()

	return ctx, group
}
