package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ilosync/ilosync/cmd/global"
	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Probe the management controller and print all discovered telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := configuration.DetectAndReadConfigFile()
		ui.Info("Using configuration file at: %s", configPath)
		configuration.LoadConfig()
		if err := configuration.Validate(configPath); err != nil {
			ui.Fatal(err.Error())
		}

		client := ilo.NewClient(configuration.CurrentConfig.Ilo)
		ctx := context.Background()

		sensors, err := client.Sensors(ctx)
		if err != nil {
			return err
		}
		sensorRows := make([][]string, 0, len(sensors.Sensors))
		for _, sensor := range sensors.Sensors {
			sensorRows = append(sensorRows, []string{
				sensor.Name,
				sensor.Context,
				fmt.Sprintf("%.1f", sensor.Reading),
				fmt.Sprintf("%.0f", sensor.CriticalThreshold),
				fmt.Sprintf("%.0f", sensor.FatalThreshold),
				sensor.Status,
			})
		}
		printTable([]string{"Sensor", "Context", "Reading", "Critical", "Fatal", "Status"}, sensorRows)

		fans, err := client.Fans(ctx)
		if err != nil {
			return err
		}
		fanRows := make([][]string, 0, len(fans.Fans))
		for _, fan := range fans.Fans {
			fanRows = append(fanRows, []string{
				fan.Name,
				fmt.Sprintf("%d%%", fan.Speed),
				fan.Status,
				fan.Health,
			})
		}
		printTable([]string{"Fan", "Speed", "Status", "Health"}, fanRows)

		pids, err := client.Pids(ctx)
		if err != nil {
			return err
		}
		pidRows := make([][]string, 0, len(pids.Records))
		for _, record := range pids.Records {
			pidRows = append(pidRows, []string{
				fmt.Sprintf("%d", record.Number),
				fmt.Sprintf("%.2f/%.2f/%.2f", record.PGain, record.IGain, record.DGain),
				fmt.Sprintf("%.1f", record.SetPoint),
				fmt.Sprintf("%.0f..%.0f", record.LowLimit, record.HighLimit),
				fmt.Sprintf("%.1f", record.Output),
				fmt.Sprintf("%t", record.Active),
			})
		}
		printTable([]string{"PID", "Gains", "Setpoint", "Limits", "Output", "Active"}, pidRows)

		power, err := client.Power(ctx)
		if err != nil {
			return err
		}
		ui.Printfln("Power: %dW present, %dW avg (%dW..%dW), cap %dW, mode %s, firmware %s",
			power.PresentPower, power.AveragePower, power.MinPower, power.MaxPower,
			power.PowerCap, power.RegulationMode, power.FirmwareVersion)

		return nil
	},
}

func printTable(headers []string, rows [][]string) {
	tab := table.Table{
		Headers: headers,
		Rows:    rows,
	}
	var buf bytes.Buffer
	tableErr := tab.WriteTable(&buf, &table.Config{
		ShowIndex:       false,
		Color:           !global.NoColor,
		AlternateColors: true,
		TitleColorCode:  ansi.ColorCode("white+buf"),
		AltColorCodes: []string{
			ansi.ColorCode("white"),
			ansi.ColorCode("white:236"),
		},
	})
	if tableErr != nil {
		panic(tableErr)
	}
	ui.Printfln(buf.String())
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
