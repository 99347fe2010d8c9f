//go:build rp2040

// Firmware for the 5-axis servo arm: protocol lines arrive over USB CDC and
// the control loop drives the servos from GPIO0..GPIO5.
package main

import (
	"context"
	"log/slog"
	"machine"
	"time"

	"servoarm/arm/config"
	"servoarm/arm/controller"
)

func main() {
	// CRITICAL: Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	machine.Serial.Configure(machine.UARTConfig{})

	cfg := config.DefaultArmConfig()
	logger := slog.New(slog.DiscardHandler)

	manager, err := controller.NewManagerWithConfig(cfg, logger)
	if err != nil {
		blinkError()
	}

	driver, idle := newServoBackend()
	if err := manager.Initialize(driver, NewHardwareClock(idle)); err != nil {
		blinkError()
	}

	// Flash LED 3 times to indicate the controller started
	blink(3, 200*time.Millisecond)

	// The control loop only returns if the USB port fails
	for {
		if err := manager.Run(context.Background(), machine.Serial, machine.Serial); err != nil {
			machine.Serial.Write([]byte("Error: " + err.Error() + "\n"))
		}
	}
}

func blink(count int, period time.Duration) {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for i := 0; i < count; i++ {
		led.High()
		time.Sleep(period)
		led.Low()
		time.Sleep(period)
	}
}

// blinkError flashes the LED rapidly forever
func blinkError() {
	for {
		blink(1, 100*time.Millisecond)
	}
}
