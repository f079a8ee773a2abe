package cmd

import (
	"encoding/json"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"taxifare/api"
	"taxifare/models"
)

var predictArgs = map[string]*string{}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict one fare with the saved model",
	Example: `  taxifare predict --pickup_datetime="2013-07-06 17:18:00" \
    --pickup_longitude=-73.950655 --pickup_latitude=40.783282 \
    --dropoff_longitude=-73.984365 --dropoff_latitude=40.769802 --passenger_count=1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		d := &deps{}
		defer d.close()
		model, err := loadModel(ctx, d, cfg)
		if err != nil {
			return err
		}
		server, err := api.NewServer(model, cfg.Server.TimeZone, nil)
		if err != nil {
			return err
		}

		q := url.Values{}
		for name, v := range predictArgs {
			q.Set(name, *v)
		}
		quote, err := server.Quote(q)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(quote)
	},
}

func init() {
	for _, name := range []string{
		models.ColPickupDatetime,
		models.ColPickupLongitude, models.ColPickupLatitude,
		models.ColDropoffLongitude, models.ColDropoffLatitude,
		models.ColPassengerCount,
	} {
		predictArgs[name] = predictCmd.Flags().String(name, "", name)
		predictCmd.MarkFlagRequired(name)
	}
}
